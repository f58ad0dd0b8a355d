package reports

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/app/api"
	"github.com/mytheresa/go-order-management/models"
)

const (
	cacheKey = "sql_queries"

	topSellingWindow = 30 * 24 * time.Hour
	topSellingLimit  = 5
)

type ClientOrderTotal struct {
	ClientName       string  `json:"client_name"`
	TotalOrderAmount float64 `json:"total_order_amount"`
}

type CategoryChildCount struct {
	CategoryName        string `json:"category_name"`
	DirectChildrenCount int64  `json:"direct_children_count"`
}

type TopSellingProduct struct {
	ProductName       string  `json:"product_name"`
	TopLevelCategory  *string `json:"top_level_category"`
	TotalSoldQuantity int64   `json:"total_sold_quantity"`
}

// Response keeps the query_2_x keys existing API clients read.
type Response struct {
	ClientOrderTotals      []ClientOrderTotal   `json:"query_2_1"`
	CategoryChildrenCounts []CategoryChildCount `json:"query_2_2"`
	TopSellingProducts     []TopSellingProduct  `json:"query_2_3"`
}

type ReportProvider interface {
	ClientOrderTotals(ctx context.Context) ([]models.ClientOrderTotal, error)
	CategoryChildCounts(ctx context.Context) ([]models.CategoryChildCount, error)
	TopSellingProducts(ctx context.Context, since time.Time, limit int) ([]models.ProductSales, error)
}

// Cache is satisfied by cache.ReportCache.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
	Invalidate(ctx context.Context, key string)
}

type ReportHandler struct {
	repo   ReportProvider
	cache  Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewReportHandler creates a handler for the reporting queries. cache may be nil.
func NewReportHandler(r ReportProvider, cache Cache, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		repo:   r,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

func (h *ReportHandler) HandleGetReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		var cached Response
		if h.cache.Get(ctx, cacheKey, &cached) {
			if err := api.WriteJSON(w, http.StatusOK, cached); err != nil {
				h.logger.Warn("failed to write response", zap.Error(err))
			}
			return
		}
	}

	response, err := h.build(ctx)
	if err != nil {
		h.logger.Error("failed to run reports", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Failed to run reports")
		return
	}

	if h.cache != nil {
		h.cache.Set(ctx, cacheKey, response)
	}

	if err := api.WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

// InvalidateReports drops the cached response so the next request reruns
// the queries.
func (h *ReportHandler) InvalidateReports(ctx context.Context) {
	if h.cache != nil {
		h.cache.Invalidate(ctx, cacheKey)
	}
}

func (h *ReportHandler) build(ctx context.Context) (Response, error) {
	totals, err := h.repo.ClientOrderTotals(ctx)
	if err != nil {
		return Response{}, err
	}
	counts, err := h.repo.CategoryChildCounts(ctx)
	if err != nil {
		return Response{}, err
	}
	sales, err := h.repo.TopSellingProducts(ctx, h.now().Add(-topSellingWindow), topSellingLimit)
	if err != nil {
		return Response{}, err
	}

	response := Response{
		ClientOrderTotals:      make([]ClientOrderTotal, len(totals)),
		CategoryChildrenCounts: make([]CategoryChildCount, len(counts)),
		TopSellingProducts:     make([]TopSellingProduct, len(sales)),
	}
	for i, t := range totals {
		response.ClientOrderTotals[i] = ClientOrderTotal{
			ClientName:       t.ClientName,
			TotalOrderAmount: t.TotalOrderAmount.InexactFloat64(),
		}
	}
	for i, c := range counts {
		response.CategoryChildrenCounts[i] = CategoryChildCount{
			CategoryName:        c.CategoryName,
			DirectChildrenCount: c.DirectChildrenCount,
		}
	}
	for i, s := range sales {
		response.TopSellingProducts[i] = TopSellingProduct{
			ProductName:       s.ProductName,
			TopLevelCategory:  s.TopLevelCategory,
			TotalSoldQuantity: s.TotalSoldQuantity,
		}
	}
	return response, nil
}
