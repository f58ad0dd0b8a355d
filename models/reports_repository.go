package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ClientOrderTotal struct {
	ClientName       string
	TotalOrderAmount decimal.Decimal
}

type CategoryChildCount struct {
	CategoryName        string
	DirectChildrenCount int64
}

type ProductSales struct {
	ProductName       string
	TopLevelCategory  *string
	TotalSoldQuantity int64
}

type ReportsRepository struct {
	db *gorm.DB
}

func NewReportsRepository(db *gorm.DB) *ReportsRepository {
	return &ReportsRepository{db: db}
}

// ClientOrderTotals returns every client with the sum of its order totals.
func (r *ReportsRepository) ClientOrderTotals(ctx context.Context) ([]ClientOrderTotal, error) {
	var rows []ClientOrderTotal
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.name AS client_name,
		       COALESCE(SUM(o.total_amount), 0) AS total_order_amount
		FROM clients c
		LEFT JOIN orders o ON o.client_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name, c.id
	`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("client order totals: %w", err)
	}
	return rows, nil
}

// CategoryChildCounts returns every category with its number of direct children.
func (r *ReportsRepository) CategoryChildCounts(ctx context.Context) ([]CategoryChildCount, error) {
	var rows []CategoryChildCount
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.name AS category_name,
		       COUNT(ch.id) AS direct_children_count
		FROM categories c
		LEFT JOIN categories ch ON ch.parent_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name, c.id
	`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("category child counts: %w", err)
	}
	return rows, nil
}

// TopSellingProducts returns the limit best selling products on orders
// created at or after since, with the root category of each product.
func (r *ReportsRepository) TopSellingProducts(ctx context.Context, since time.Time, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE category_roots AS (
			SELECT id, id AS root_id
			FROM categories
			WHERE parent_id IS NULL
			UNION ALL
			SELECT c.id, cr.root_id
			FROM categories c
			JOIN category_roots cr ON c.parent_id = cr.id
		)
		SELECT p.name AS product_name,
		       root.name AS top_level_category,
		       SUM(oi.quantity) AS total_sold_quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		LEFT JOIN category_roots cr ON cr.id = p.category_id
		LEFT JOIN categories root ON root.id = cr.root_id
		WHERE o.created_at >= @since
		GROUP BY p.id, p.name, root.name
		ORDER BY total_sold_quantity DESC, p.name
		LIMIT @limit
	`, map[string]any{"since": since, "limit": limit}).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	return rows, nil
}
