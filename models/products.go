package models

import (
	"github.com/shopspring/decimal"
)

// Product represents a stocked product.
// Quantity is the number of units currently available in inventory.
type Product struct {
	ID         uint            `gorm:"primaryKey"`
	Name       string          `gorm:"size:255;not null"`
	Quantity   int             `gorm:"not null"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID *uint
	Category   *Category `gorm:"foreignKey:CategoryID"`
}

func (p *Product) TableName() string {
	return "products"
}

// CheckStock reports whether product has at least requested units available.
// It never modifies the product.
func CheckStock(product *Product, requested int) error {
	if product.Quantity < requested {
		return &InsufficientStockError{
			ProductID: product.ID,
			Requested: requested,
			Available: product.Quantity,
		}
	}
	return nil
}
