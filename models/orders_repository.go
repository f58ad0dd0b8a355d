package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderTx is the unit of work used to add an item to an order.
// Every method runs inside the transaction that produced it.
type OrderTx interface {
	// FindOrderForUpdate loads the order and its items, locking the order row.
	FindOrderForUpdate(ctx context.Context, id uint) (*Order, error)
	// FindProductForUpdate loads the product, locking its row.
	FindProductForUpdate(ctx context.Context, id uint) (*Product, error)
	// DecrementStock removes quantity units from the product only if that
	// many are available.
	DecrementStock(ctx context.Context, productID uint, quantity int) error
	// SaveItem inserts the item when it has no id and updates it otherwise.
	SaveItem(ctx context.Context, item *OrderItem) error
	ListItems(ctx context.Context, orderID uint) ([]OrderItem, error)
	UpdateOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error
}

type OrdersRepository struct {
	db *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

func (r *OrdersRepository) GetAllOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := r.db.WithContext(ctx).Order("id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *OrdersRepository) GetByID(ctx context.Context, id uint) (*Order, error) {
	var order Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Transaction runs fn inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise; fn's error is
// returned as is.
func (r *OrdersRepository) Transaction(ctx context.Context, fn func(tx OrderTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&orderTx{db: db})
	})
}

type orderTx struct {
	db *gorm.DB
}

func (t *orderTx) FindOrderForUpdate(ctx context.Context, id uint) (*Order, error) {
	var order Order
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (t *orderTx) FindProductForUpdate(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (t *orderTx) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	res := t.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ? AND quantity >= ?", productID, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var available int
	if err := t.db.WithContext(ctx).
		Model(&Product{}).
		Select("quantity").
		Where("id = ?", productID).
		Scan(&available).Error; err != nil {
		return err
	}
	return &InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
}

func (t *orderTx) SaveItem(ctx context.Context, item *OrderItem) error {
	return t.db.WithContext(ctx).Save(item).Error
}

func (t *orderTx) ListItems(ctx context.Context, orderID uint) ([]OrderItem, error) {
	var items []OrderItem
	if err := t.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (t *orderTx) UpdateOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error {
	return t.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", orderID).
		Update("total_amount", total).Error
}
