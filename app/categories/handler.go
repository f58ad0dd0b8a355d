package categories

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/app/api"
	"github.com/mytheresa/go-order-management/models"
)

type CategoryResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	ParentID *uint  `json:"parent_id"`
}

type CategoryProvider interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	SetParent(ctx context.Context, id uint, parentID *uint) error
}

type CategoryHandler struct {
	repo   CategoryProvider
	logger *zap.Logger
}

func NewCategoryHandler(r CategoryProvider, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{repo: r, logger: logger}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch categories", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = CategoryResponse{
			ID:       c.ID,
			Name:     c.Name,
			ParentID: c.ParentID,
		}
	}

	if err := api.WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		ParentID *uint  `json:"parent_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if input.Name == "" {
		api.WriteError(w, http.StatusBadRequest, "Missing name")
		return
	}

	category := &models.Category{
		Name:     input.Name,
		ParentID: input.ParentID,
	}

	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			api.WriteError(w, http.StatusNotFound, "Parent category not found")
			return
		}
		h.logger.Error("failed to create category", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	if err := api.WriteJSON(w, http.StatusCreated, CategoryResponse{
		ID:       category.ID,
		Name:     category.Name,
		ParentID: category.ParentID,
	}); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

// HandleSetParent moves a category under another one, or to the top level
// when parent_id is null.
func (h *CategoryHandler) HandleSetParent(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "category_id")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	var input struct {
		ParentID *uint `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.repo.SetParent(r.Context(), id, input.ParentID); err != nil {
		switch {
		case errors.Is(err, models.ErrCategoryNotFound):
			api.WriteError(w, http.StatusNotFound, "Category not found")
		case errors.Is(err, models.ErrCategoryCycle):
			api.WriteError(w, http.StatusConflict, "Category cannot be moved under itself or its descendants")
		default:
			h.logger.Error("failed to move category", zap.Uint("category_id", id), zap.Error(err))
			api.WriteError(w, http.StatusInternalServerError, "Failed to move category")
		}
		return
	}

	if err := api.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Category moved successfully",
	}); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
