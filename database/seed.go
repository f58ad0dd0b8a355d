package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mytheresa/go-order-management/models"
)

// Seed populates an empty database with a small catalog, clients and
// orders for local development. It does nothing when products exist.
func Seed(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed check products: %w", err)
	}
	if count > 0 {
		logger.Info("database already seeded, skipping")
		return nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, root := range seedCategories() {
			if err := tx.Create(&root).Error; err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
		}

		categoryID := func(name string) *uint {
			var c models.Category
			if err := tx.Where("name = ?", name).First(&c).Error; err != nil {
				return nil
			}
			return &c.ID
		}

		products := []models.Product{
			{Name: "Washing machine", Quantity: 15, Price: decimal.RequireFromString("499.99"), CategoryID: categoryID("Washing machines")},
			{Name: "Refrigerator", Quantity: 8, Price: decimal.RequireFromString("899.00"), CategoryID: categoryID("Refrigerators")},
			{Name: "Laptop 15\"", Quantity: 25, Price: decimal.RequireFromString("1199.50"), CategoryID: categoryID("Laptops")},
			{Name: "Laptop 13\"", Quantity: 12, Price: decimal.RequireFromString("999.90"), CategoryID: categoryID("Laptops")},
			{Name: "Television 55\"", Quantity: 10, Price: decimal.RequireFromString("649.00"), CategoryID: categoryID("Televisions")},
			{Name: "USB cable", Quantity: 200, Price: decimal.RequireFromString("2.50"), CategoryID: categoryID("Accessories")},
		}
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}

		clients := []models.Client{
			{Name: "Alice Martin", Address: strPtr("12 Market Street, Springfield")},
			{Name: "Bob Ivanov", Address: strPtr("4 Harbour Road, Portsmouth")},
			{Name: "Carol Díaz"},
		}
		if err := tx.Create(&clients).Error; err != nil {
			return fmt.Errorf("seed clients: %w", err)
		}

		orders := []models.Order{
			{ClientID: clients[0].ID, Status: models.DefaultOrderStatus},
			{ClientID: clients[1].ID, Status: models.DefaultOrderStatus},
		}
		if err := tx.Create(&orders).Error; err != nil {
			return fmt.Errorf("seed orders: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("database seeded with development data")
	return nil
}

// seedCategories returns the category tree; gorm creates children through
// the Children association.
func seedCategories() []models.Category {
	return []models.Category{
		{Name: "Household appliances", Children: []models.Category{
			{Name: "Washing machines"},
			{Name: "Refrigerators", Children: []models.Category{
				{Name: "Single-chamber"},
				{Name: "Two-chamber"},
			}},
			{Name: "Televisions"},
		}},
		{Name: "Computers", Children: []models.Category{
			{Name: "Laptops", Children: []models.Category{
				{Name: "17\""},
				{Name: "19\""},
			}},
			{Name: "Monoblocks"},
			{Name: "Accessories"},
		}},
	}
}

func strPtr(s string) *string { return &s }
