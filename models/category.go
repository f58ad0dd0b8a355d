package models

// Category represents a node of the product category tree.
// A category without a parent is a top-level category.
type Category struct {
	ID       uint       `gorm:"primaryKey"`
	Name     string     `gorm:"size:255;not null"`
	ParentID *uint      `gorm:"index"`
	Parent   *Category  `gorm:"foreignKey:ParentID"`
	Children []Category `gorm:"foreignKey:ParentID"`
	Products []Product  `gorm:"foreignKey:CategoryID"`
}

func (c *Category) TableName() string {
	return "categories"
}
