package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

func (r *CategoriesRepository) GetAllCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts category. A non-nil ParentID must reference an
// existing category.
func (r *CategoriesRepository) CreateCategory(ctx context.Context, category *Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if category.ParentID != nil {
			if _, err := parentOf(ctx, tx, *category.ParentID); err != nil {
				return err
			}
		}
		return tx.Create(category).Error
	})
}

// SetParent moves category id under parentID, or to the top level when
// parentID is nil. It fails with ErrCategoryCycle when parentID is id
// itself or one of its descendants.
func (r *CategoriesRepository) SetParent(ctx context.Context, id uint, parentID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := parentOf(ctx, tx, id); err != nil {
			return err
		}
		if parentID != nil {
			cycle, err := createsCycle(id, *parentID, func(cid uint) (*uint, error) {
				return parentOf(ctx, tx, cid)
			})
			if err != nil {
				return err
			}
			if cycle {
				return ErrCategoryCycle
			}
		}
		return tx.Model(&Category{}).Where("id = ?", id).Update("parent_id", parentID).Error
	})
}

func parentOf(ctx context.Context, db *gorm.DB, id uint) (*uint, error) {
	var category Category
	if err := db.WithContext(ctx).Select("id", "parent_id").First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category.ParentID, nil
}

// createsCycle walks the ancestors of parentID and reports whether id is
// among them (or is parentID itself). An already corrupted chain is also
// treated as a cycle.
func createsCycle(id, parentID uint, parent func(uint) (*uint, error)) (bool, error) {
	seen := map[uint]bool{}
	current := &parentID
	for current != nil {
		if *current == id || seen[*current] {
			return true, nil
		}
		seen[*current] = true

		next, err := parent(*current)
		if err != nil {
			return false, err
		}
		current = next
	}
	return false, nil
}
