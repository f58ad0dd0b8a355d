package models

// Client is a customer placing orders.
type Client struct {
	ID      uint    `gorm:"primaryKey"`
	Name    string  `gorm:"size:255;not null"`
	Address *string
	Orders  []Order `gorm:"foreignKey:ClientID"`
}

func (c *Client) TableName() string {
	return "clients"
}
