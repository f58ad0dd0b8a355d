package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/app/api"
	"github.com/mytheresa/go-order-management/models"
)

type OrderResponse struct {
	ID          uint      `json:"id"`
	ClientID    uint      `json:"client_id"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type AddItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type ItemResponse struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	Quantity    int     `json:"quantity"`
	PriceAtTime float64 `json:"price_at_time"`
	Subtotal    float64 `json:"subtotal"`
}

type AddItemResponse struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	OrderID    uint         `json:"order_id"`
	Item       ItemResponse `json:"item"`
	OrderTotal float64      `json:"order_total"`
}

type OrderProvider interface {
	GetByID(ctx context.Context, id uint) (*models.Order, error)
}

type ItemAdder interface {
	AddItemToOrder(ctx context.Context, orderID, productID uint, quantity int) (*AddItemResult, error)
}

type OrderHandler struct {
	repo    OrderProvider
	service ItemAdder
	logger  *zap.Logger
}

func NewOrderHandler(repo OrderProvider, service ItemAdder, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		repo:    repo,
		service: service,
		logger:  logger,
	}
}

func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "order_id")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			api.WriteError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.Error("failed to retrieve order", zap.Uint("order_id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}

	if err := api.WriteJSON(w, http.StatusOK, OrderResponse{
		ID:          order.ID,
		ClientID:    order.ClientID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.InexactFloat64(),
		CreatedAt:   order.CreatedAt,
	}); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *OrderHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.PathID(r, "order_id")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var input AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.ProductID <= 0 || input.Quantity <= 0 {
		api.WriteError(w, http.StatusUnprocessableEntity, "product_id and quantity must be positive integers")
		return
	}

	res, err := h.service.AddItemToOrder(r.Context(), orderID, uint(input.ProductID), input.Quantity)
	if err != nil {
		var stockErr *models.InsufficientStockError
		switch {
		case errors.Is(err, models.ErrOrderNotFound):
			api.WriteError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, models.ErrProductNotFound):
			api.WriteError(w, http.StatusNotFound, "Product not found")
		case errors.As(err, &stockErr):
			api.WriteError(w, http.StatusBadRequest,
				fmt.Sprintf("Insufficient stock, available: %d", stockErr.Available))
		default:
			api.WriteError(w, http.StatusInternalServerError, "Failed to add item to order")
		}
		return
	}

	if err := api.WriteJSON(w, http.StatusOK, AddItemResponse{
		Success: true,
		Message: "Item added to order",
		OrderID: res.OrderID,
		Item: ItemResponse{
			ID:          res.Item.ID,
			ProductID:   res.Item.ProductID,
			Quantity:    res.Item.Quantity,
			PriceAtTime: res.Item.PriceAtTime.InexactFloat64(),
			Subtotal:    res.Subtotal.InexactFloat64(),
		},
		OrderTotal: res.OrderTotal.InexactFloat64(),
	}); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
