package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/cache"
	"github.com/mytheresa/go-order-management/models"
)

// --- Mock Repository ---

type MockReportRepo struct {
	Totals []models.ClientOrderTotal
	Counts []models.CategoryChildCount
	Sales  []models.ProductSales
	Err    error

	calls     int
	lastSince time.Time
	lastLimit int
}

func (m *MockReportRepo) ClientOrderTotals(_ context.Context) ([]models.ClientOrderTotal, error) {
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Totals, nil
}

func (m *MockReportRepo) CategoryChildCounts(_ context.Context) ([]models.CategoryChildCount, error) {
	return m.Counts, nil
}

func (m *MockReportRepo) TopSellingProducts(_ context.Context, since time.Time, limit int) ([]models.ProductSales, error) {
	m.lastSince = since
	m.lastLimit = limit
	return m.Sales, nil
}

func strPtr(s string) *string { return &s }

func fixtureRepo() *MockReportRepo {
	return &MockReportRepo{
		Totals: []models.ClientOrderTotal{
			{ClientName: "Alice", TotalOrderAmount: decimal.RequireFromString("1049.98")},
			{ClientName: "Bob", TotalOrderAmount: decimal.Zero},
		},
		Counts: []models.CategoryChildCount{
			{CategoryName: "Electronics", DirectChildrenCount: 2},
			{CategoryName: "Laptops", DirectChildrenCount: 0},
		},
		Sales: []models.ProductSales{
			{ProductName: "Laptop Pro", TopLevelCategory: strPtr("Electronics"), TotalSoldQuantity: 3},
			{ProductName: "Loose item", TopLevelCategory: nil, TotalSoldQuantity: 1},
		},
	}
}

func TestHandleGetReports(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo := fixtureRepo()
		handler := NewReportHandler(repo, nil, zap.NewNop())
		handler.now = func() time.Time { return now }
		req := httptest.NewRequest("GET", "/api/v1/sql/queries", nil)
		rec := httptest.NewRecorder()

		// Act
		handler.HandleGetReports(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.ClientOrderTotals, 2)
		assert.Equal(t, "Alice", resp.ClientOrderTotals[0].ClientName)
		assert.Equal(t, 1049.98, resp.ClientOrderTotals[0].TotalOrderAmount)
		assert.Equal(t, 0.0, resp.ClientOrderTotals[1].TotalOrderAmount)

		require.Len(t, resp.CategoryChildrenCounts, 2)
		assert.Equal(t, int64(2), resp.CategoryChildrenCounts[0].DirectChildrenCount)

		require.Len(t, resp.TopSellingProducts, 2)
		assert.Equal(t, "Electronics", *resp.TopSellingProducts[0].TopLevelCategory)
		assert.Nil(t, resp.TopSellingProducts[1].TopLevelCategory)

		assert.Equal(t, now.Add(-30*24*time.Hour), repo.lastSince)
		assert.Equal(t, 5, repo.lastLimit)
	})

	t.Run("Response keys", func(t *testing.T) {
		// Arrange
		handler := NewReportHandler(fixtureRepo(), nil, zap.NewNop())
		rec := httptest.NewRecorder()

		// Act
		handler.HandleGetReports(rec, httptest.NewRequest("GET", "/api/v1/sql/queries", nil))

		// Assert
		var raw map[string][]map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
		assert.Len(t, raw, 3)
		require.Len(t, raw["query_2_1"], 2)
		assert.Equal(t, "Alice", raw["query_2_1"][0]["client_name"])
		assert.Equal(t, 1049.98, raw["query_2_1"][0]["total_order_amount"])
		require.Len(t, raw["query_2_2"], 2)
		assert.Equal(t, "Electronics", raw["query_2_2"][0]["category_name"])
		assert.Equal(t, float64(2), raw["query_2_2"][0]["direct_children_count"])
		require.Len(t, raw["query_2_3"], 2)
		assert.Equal(t, "Laptop Pro", raw["query_2_3"][0]["product_name"])
		assert.Equal(t, "Electronics", raw["query_2_3"][0]["top_level_category"])
		assert.Equal(t, float64(3), raw["query_2_3"][0]["total_sold_quantity"])
		assert.Nil(t, raw["query_2_3"][1]["top_level_category"])
	})

	t.Run("Empty results render empty arrays", func(t *testing.T) {
		// Arrange
		handler := NewReportHandler(&MockReportRepo{}, nil, zap.NewNop())
		req := httptest.NewRequest("GET", "/api/v1/sql/queries", nil)
		rec := httptest.NewRecorder()

		// Act
		handler.HandleGetReports(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"query_2_1":[],"query_2_2":[],"query_2_3":[]}`, rec.Body.String())
	})

	t.Run("Repository error", func(t *testing.T) {
		// Arrange
		handler := NewReportHandler(&MockReportRepo{Err: errors.New("db down")}, nil, zap.NewNop())
		req := httptest.NewRequest("GET", "/api/v1/sql/queries", nil)
		rec := httptest.NewRecorder()

		// Act
		handler.HandleGetReports(rec, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var errResp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
		assert.Equal(t, "Failed to run reports", errResp["error"])
	})
}

func TestHandleGetReportsCached(t *testing.T) {
	// Arrange
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := fixtureRepo()
	handler := NewReportHandler(repo, cache.NewReportCache(client, time.Minute, zap.NewNop()), zap.NewNop())

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.HandleGetReports(rec, httptest.NewRequest("GET", "/api/v1/sql/queries", nil))
		return rec
	}

	// Act
	first := get()
	second := get()

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, repo.calls, "second request should be served from the cache")

	mr.FastForward(2 * time.Minute)
	get()
	assert.Equal(t, 2, repo.calls, "expired entry should be recomputed")
}

func TestInvalidateReports(t *testing.T) {
	// Arrange
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := fixtureRepo()
	handler := NewReportHandler(repo, cache.NewReportCache(client, time.Minute, zap.NewNop()), zap.NewNop())
	get := func() {
		handler.HandleGetReports(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/sql/queries", nil))
	}
	get()
	require.Equal(t, 1, repo.calls)

	// Act
	handler.InvalidateReports(context.Background())
	get()

	// Assert
	assert.Equal(t, 2, repo.calls, "invalidated entry should be recomputed")
}

func TestInvalidateReportsWithoutCache(t *testing.T) {
	handler := NewReportHandler(fixtureRepo(), nil, zap.NewNop())

	assert.NotPanics(t, func() { handler.InvalidateReports(context.Background()) })
}

func TestHandleGetReportsCacheDown(t *testing.T) {
	// Arrange
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	repo := fixtureRepo()
	handler := NewReportHandler(repo, cache.NewReportCache(client, time.Minute, zap.NewNop()), zap.NewNop())
	rec := httptest.NewRecorder()

	// Act
	handler.HandleGetReports(rec, httptest.NewRequest("GET", "/api/v1/sql/queries", nil))

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, repo.calls)
}
