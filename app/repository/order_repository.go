package repository

import (
	"context"

	"github.com/fivedlabs/beatstore/app/models"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// List returns all orders newest first with their items and the beats they reference.
func (r *orderRepository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Beat").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, translate("list orders", "order", "", err)
	}
	return orders, nil
}

// GetByID additionally loads the licenses issued per item.
func (r *orderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Beat").Preload("Items.Licenses").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translate("get order", "order", id, err)
	}
	return &order, nil
}
