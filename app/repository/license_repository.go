package repository

import (
	"context"

	"github.com/fivedlabs/beatstore/app/models"
	"gorm.io/gorm"
)

type licenseRepository struct {
	db *gorm.DB
}

func NewLicenseRepository(db *gorm.DB) LicenseRepository {
	return &licenseRepository{db: db}
}

func (r *licenseRepository) List(ctx context.Context, filter LicenseFilter) ([]models.License, error) {
	var licenses []models.License
	q := r.db.WithContext(ctx).
		Preload("OrderItem").Preload("OrderItem.Beat").Preload("OrderItem.Order")
	if filter.LicenseType != "" {
		q = q.Where("license_type = ?", filter.LicenseType)
	}
	if err := q.Order("created_at DESC").Find(&licenses).Error; err != nil {
		return nil, translate("list licenses", "license", "", err)
	}
	return licenses, nil
}

func (r *licenseRepository) GetByID(ctx context.Context, id string) (*models.License, error) {
	var license models.License
	err := r.db.WithContext(ctx).
		Preload("OrderItem").Preload("OrderItem.Beat").Preload("OrderItem.Order").
		Where("id = ?", id).
		First(&license).Error
	if err != nil {
		return nil, translate("get license", "license", id, err)
	}
	return &license, nil
}
