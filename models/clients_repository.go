package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type ClientsRepository struct {
	db *gorm.DB
}

func NewClientsRepository(db *gorm.DB) *ClientsRepository {
	return &ClientsRepository{db: db}
}

func (r *ClientsRepository) GetAllClients(ctx context.Context) ([]Client, error) {
	var clients []Client
	if err := r.db.WithContext(ctx).Order("id").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (r *ClientsRepository) GetByID(ctx context.Context, id uint) (*Client, error) {
	var client Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}
