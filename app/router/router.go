// Package router wires the HTTP handlers and middleware into a chi router.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/app/api"
	"github.com/mytheresa/go-order-management/app/categories"
	"github.com/mytheresa/go-order-management/app/clients"
	"github.com/mytheresa/go-order-management/app/middleware"
	"github.com/mytheresa/go-order-management/app/orders"
	"github.com/mytheresa/go-order-management/app/products"
	"github.com/mytheresa/go-order-management/app/reports"
	"github.com/mytheresa/go-order-management/app/snapshot"
	"github.com/mytheresa/go-order-management/observability"
)

type Handlers struct {
	Orders     *orders.OrderHandler
	Products   *products.ProductHandler
	Clients    *clients.ClientHandler
	Categories *categories.CategoryHandler
	Reports    *reports.ReportHandler
	Snapshot   *snapshot.SnapshotHandler
}

var endpoints = map[string]string{
	"add_item":        "POST /api/v1/orders/{order_id}/items",
	"get_order":       "GET /api/v1/orders/{order_id}",
	"get_product":     "GET /api/v1/products/{product_id}",
	"get_client":      "GET /api/v1/clients/{client_id}",
	"list_categories": "GET /api/v1/categories",
	"create_category": "POST /api/v1/categories",
	"move_category":   "PUT /api/v1/categories/{category_id}/parent",
	"test_data":       "GET /api/v1/test-data",
	"sql_queries":     "GET /api/v1/sql/queries",
	"health":          "GET /health",
}

// New returns the router with every API route and the global middleware.
func New(h Handlers, corsOrigins []string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(corsOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", rootHandler(logger))
	r.Get("/health", healthHandler(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/orders/{order_id}", h.Orders.HandleGetOrder)
		r.Post("/orders/{order_id}/items", h.Orders.HandleAddItem)
		r.Get("/products/{product_id}", h.Products.HandleGetProduct)
		r.Get("/clients/{client_id}", h.Clients.HandleGetClient)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Categories.HandleGetAll)
			r.Post("/", h.Categories.HandleCreate)
			r.Put("/{category_id}/parent", h.Categories.HandleSetParent)
		})

		r.Get("/test-data", h.Snapshot.HandleGetTestData)
		r.Get("/sql/queries", h.Reports.HandleGetReports)
	})

	return r
}

func rootHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := api.WriteJSON(w, http.StatusOK, map[string]any{
			"message":   "Order Management API",
			"version":   observability.ServiceVersion,
			"endpoints": endpoints,
		}); err != nil {
			logger.Warn("failed to write response", zap.Error(err))
		}
	}
}

func healthHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := api.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": observability.ServiceName,
		}); err != nil {
			logger.Warn("failed to write response", zap.Error(err))
		}
	}
}
