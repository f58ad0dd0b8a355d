package models

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when an order is not found.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrClientNotFound is returned when a client is not found.
	ErrClientNotFound = errors.New("client not found")
	// ErrCategoryNotFound is returned when a category or requested parent is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryCycle is returned when re-parenting would make a category its own ancestor.
	ErrCategoryCycle = errors.New("category cannot be its own ancestor")
	// ErrInvalidQuantity is returned for non-positive item quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError is returned when a product has fewer units
// available than requested.
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available: %d",
		e.ProductID, e.Requested, e.Available)
}
