package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultOrderStatus is assigned to orders created without an explicit status.
const DefaultOrderStatus = "pending"

// Order groups the line items bought by a client.
// TotalAmount is derived from Items and recomputed after every mutation.
type Order struct {
	ID          uint            `gorm:"primaryKey"`
	ClientID    uint            `gorm:"not null;index"`
	Client      Client          `gorm:"foreignKey:ClientID"`
	Status      string          `gorm:"size:50;not null;default:pending"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID"`
}

func (o *Order) TableName() string {
	return "orders"
}

// ItemFor returns the line item referencing productID, or nil.
func (o *Order) ItemFor(productID uint) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}

// OrderItem is one product entry within an order.
// PriceAtTime is the unit price recorded when the product was last added.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey"`
	OrderID     uint            `gorm:"not null;uniqueIndex:uq_order_items_order_product"`
	ProductID   uint            `gorm:"not null;uniqueIndex:uq_order_items_order_product"`
	Quantity    int             `gorm:"not null;check:check_quantity_positive,quantity > 0"`
	PriceAtTime decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (i *OrderItem) TableName() string {
	return "order_items"
}

// Subtotal is quantity times the recorded unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderTotal sums the subtotals of items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
