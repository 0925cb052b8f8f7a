package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const WebhookSourceStripe = "stripe"

// WebhookEvent stores inbound provider payloads with deduplication
// metadata for idempotent processing.
type WebhookEvent struct {
	ID              string         `gorm:"type:char(36);primaryKey" json:"id"`
	Source          string         `gorm:"type:varchar(20);not null;index:ux_webhook_events_source_event,unique,priority:1" json:"source"`
	ProviderEventID string         `gorm:"type:varchar(191);not null;default:'';index:ux_webhook_events_source_event,unique,priority:2" json:"provider_event_id"`
	EventType       string         `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Processed       bool           `gorm:"not null;default:false;index" json:"processed"`
	ProcessingError string         `gorm:"type:text" json:"processing_error,omitempty"`
	Payload         datatypes.JSON `gorm:"type:json" json:"payload"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
