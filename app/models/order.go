package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusRefunded  = "refunded"
	OrderStatusFailed    = "failed"
)

// Order is written by the checkout webhook and only read by the back office.
type Order struct {
	ID               string      `gorm:"type:char(36);primaryKey" json:"id"`
	UserID           *string     `gorm:"type:varchar(64);index" json:"user_id"`
	TotalCents       int64       `gorm:"not null" json:"total_cents"`
	Status           string      `gorm:"type:varchar(32);not null;index" json:"status"`
	StripeCheckoutID string      `gorm:"type:varchar(191);uniqueIndex" json:"stripe_checkout_id"`
	CustomerEmail    string      `gorm:"type:varchar(255)" json:"customer_email,omitempty"`
	CustomerName     string      `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	Items            []OrderItem `gorm:"foreignKey:OrderID" json:"order_items,omitempty"`
	CreatedAt        time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OrderItem struct {
	ID          string      `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID     string      `gorm:"type:char(36);not null;index" json:"order_id"`
	Order       *Order      `gorm:"foreignKey:OrderID" json:"orders,omitempty"`
	BeatID      string      `gorm:"type:char(36);not null;index" json:"beat_id"`
	Beat        *Beat       `gorm:"foreignKey:BeatID" json:"beats,omitempty"`
	PriceCents  int64       `gorm:"not null" json:"price_cents"`
	LicenseType LicenseType `gorm:"type:varchar(20);not null" json:"license_type"`
	Licenses    []License   `gorm:"foreignKey:OrderItemID" json:"licenses,omitempty"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
