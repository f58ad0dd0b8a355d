package products

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/app/api"
	"github.com/mytheresa/go-order-management/models"
)

type Product struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	CategoryID *uint   `json:"category_id"`
}

type ProductProvider interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
}

type ProductHandler struct {
	repo   ProductProvider
	logger *zap.Logger
}

func NewProductHandler(r ProductProvider, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		repo:   r,
		logger: logger,
	}
}

func (h *ProductHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "product_id")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("failed to retrieve product", zap.Uint("product_id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	if err := api.WriteJSON(w, http.StatusOK, Product{
		ID:         product.ID,
		Name:       product.Name,
		Quantity:   product.Quantity,
		Price:      product.Price.InexactFloat64(),
		CategoryID: product.CategoryID,
	}); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
