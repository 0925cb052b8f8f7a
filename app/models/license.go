package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// License is the purchased right to use a beat. A nil UserID means a guest checkout.
type License struct {
	ID          string      `gorm:"type:char(36);primaryKey" json:"id"`
	OrderItemID string      `gorm:"type:char(36);not null;index" json:"order_item_id"`
	OrderItem   *OrderItem  `gorm:"foreignKey:OrderItemID" json:"order_items,omitempty"`
	UserID      *string     `gorm:"type:varchar(64);index" json:"user_id"`
	BeatID      string      `gorm:"type:char(36);not null;index" json:"beat_id"`
	LicenseType LicenseType `gorm:"type:varchar(20);not null;index" json:"license_type"`
	LicenseURL  string      `gorm:"type:varchar(1024)" json:"license_url"`
	CreatedAt   time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

func (License) TableName() string {
	return "licenses"
}

func (l *License) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
