package repository

import (
	"context"

	"github.com/fivedlabs/beatstore/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultWebhookListLimit caps the admin viewer, newest first.
const DefaultWebhookListLimit = 100

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) List(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 {
		limit = DefaultWebhookListLimit
	}
	var events []models.WebhookEvent
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, translate("list webhook events", "webhook event", "", err)
	}
	return events, nil
}

func (r *webhookEventRepository) GetByID(ctx context.Context, id string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, translate("get webhook event", "webhook event", id, err)
	}
	return &event, nil
}

// CreateIfNotExists inserts the event unless (source, provider_event_id) is already stored.
// It reports whether a new row was written and returns the stored row either way.
func (r *webhookEventRepository) CreateIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "source"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, translate("store webhook event", "webhook event", event.ProviderEventID, tx.Error)
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.WithContext(ctx).
		Where("source = ? AND provider_event_id = ?", event.Source, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, translate("load webhook event", "webhook event", event.ProviderEventID, err)
	}
	return created, &stored, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id string, processingError string) error {
	updates := map[string]any{
		"processed":        processingError == "",
		"processing_error": processingError,
	}
	err := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
	return translate("mark webhook event", "webhook event", id, err)
}
