package clients

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/app/api"
	"github.com/mytheresa/go-order-management/models"
)

type ClientResponse struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

type ClientProvider interface {
	GetByID(ctx context.Context, id uint) (*models.Client, error)
}

type ClientHandler struct {
	repo   ClientProvider
	logger *zap.Logger
}

func NewClientHandler(r ClientProvider, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{repo: r, logger: logger}
}

func (h *ClientHandler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "client_id")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid client id")
		return
	}

	client, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			api.WriteError(w, http.StatusNotFound, "Client not found")
			return
		}
		h.logger.Error("failed to retrieve client", zap.Uint("client_id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve client")
		return
	}

	if err := api.WriteJSON(w, http.StatusOK, ClientResponse{
		ID:      client.ID,
		Name:    client.Name,
		Address: client.Address,
	}); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
