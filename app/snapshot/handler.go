// Package snapshot dumps the current products, orders and clients for
// manual testing.
package snapshot

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/app/api"
	"github.com/mytheresa/go-order-management/models"
)

type Product struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID          uint    `json:"id"`
	ClientID    uint    `json:"client_id"`
	TotalAmount float64 `json:"total_amount"`
}

type Client struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Response struct {
	Products []Product `json:"products"`
	Orders   []Order   `json:"orders"`
	Clients  []Client  `json:"clients"`
}

type ProductLister interface {
	GetAllProducts(ctx context.Context) ([]models.Product, error)
}

type OrderLister interface {
	GetAllOrders(ctx context.Context) ([]models.Order, error)
}

type ClientLister interface {
	GetAllClients(ctx context.Context) ([]models.Client, error)
}

type SnapshotHandler struct {
	products ProductLister
	orders   OrderLister
	clients  ClientLister
	logger   *zap.Logger
}

func NewSnapshotHandler(p ProductLister, o OrderLister, c ClientLister, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		products: p,
		orders:   o,
		clients:  c,
		logger:   logger,
	}
}

func (h *SnapshotHandler) HandleGetTestData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.products.GetAllProducts(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	orders, err := h.orders.GetAllOrders(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	clients, err := h.clients.GetAllClients(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}

	response := Response{
		Products: make([]Product, len(products)),
		Orders:   make([]Order, len(orders)),
		Clients:  make([]Client, len(clients)),
	}
	for i, p := range products {
		response.Products[i] = Product{
			ID:       p.ID,
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    p.Price.InexactFloat64(),
		}
	}
	for i, o := range orders {
		response.Orders[i] = Order{
			ID:          o.ID,
			ClientID:    o.ClientID,
			TotalAmount: o.TotalAmount.InexactFloat64(),
		}
	}
	for i, c := range clients {
		response.Clients[i] = Client{ID: c.ID, Name: c.Name}
	}

	if err := api.WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *SnapshotHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("failed to load test data", zap.Error(err))
	api.WriteError(w, http.StatusInternalServerError, "Failed to load test data")
}
