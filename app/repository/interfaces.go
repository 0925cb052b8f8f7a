package repository

import (
	"context"

	"github.com/fivedlabs/beatstore/app/models"
	"gorm.io/gorm"
)

// BeatFilter narrows a beat listing. A zero Limit means no limit.
type BeatFilter struct {
	ActiveOnly bool
	Limit      int
}

// LicenseFilter narrows a license listing. An empty LicenseType means all tiers.
type LicenseFilter struct {
	LicenseType models.LicenseType
}

// BeatRepository is the only mutable part of the record store.
type BeatRepository interface {
	List(ctx context.Context, filter BeatFilter) ([]models.Beat, error)
	GetByID(ctx context.Context, id string) (*models.Beat, error)
	Create(ctx context.Context, beat *models.Beat) error
	Update(ctx context.Context, beat *models.Beat) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) (*models.Beat, error)
}

// OrderRepository is a read-only projection of checkout results.
type OrderRepository interface {
	List(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
}

// LicenseRepository is a read-only projection of issued licenses.
type LicenseRepository interface {
	List(ctx context.Context, filter LicenseFilter) ([]models.License, error)
	GetByID(ctx context.Context, id string) (*models.License, error)
}

// WebhookEventRepository stores inbound provider events.
type WebhookEventRepository interface {
	List(ctx context.Context, limit int) ([]models.WebhookEvent, error)
	GetByID(ctx context.Context, id string) (*models.WebhookEvent, error)
	CreateIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id string, processingError string) error
}

// CheckoutRepository writes the rows produced by a completed checkout.
type CheckoutRepository interface {
	RecordCheckout(ctx context.Context, rec CheckoutRecord) (*CheckoutResult, error)
	SetLicenseURL(ctx context.Context, licenseID, url string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Beat         BeatRepository
	Order        OrderRepository
	License      LicenseRepository
	WebhookEvent WebhookEventRepository
	Checkout     CheckoutRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Beat:         NewBeatRepository(db),
		Order:        NewOrderRepository(db),
		License:      NewLicenseRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
		Checkout:     NewCheckoutRepository(db),
	}
}
