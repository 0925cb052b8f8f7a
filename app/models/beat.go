package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LicenseType is the tier a beat is sold under.
type LicenseType string

const (
	LicenseBasic     LicenseType = "basic"
	LicensePremium   LicenseType = "premium"
	LicenseUnlimited LicenseType = "unlimited"
	LicenseExclusive LicenseType = "exclusive"
)

// LicenseTypes lists the tiers in display order.
var LicenseTypes = []LicenseType{LicenseBasic, LicensePremium, LicenseUnlimited, LicenseExclusive}

// ParseLicenseType normalises input and reports whether it names a known tier.
func ParseLicenseType(s string) (LicenseType, bool) {
	lt := LicenseType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range LicenseTypes {
		if lt == known {
			return lt, true
		}
	}
	return lt, false
}

type Beat struct {
	ID                string      `gorm:"type:char(36);primaryKey" json:"id"`
	Title             string      `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	BPM               *int        `gorm:"column:bpm;type:int" json:"bpm" validate:"omitempty,gt=0,lte=400"`
	Key               *string     `gorm:"column:key;type:varchar(32)" json:"key" validate:"omitempty,max=32"`
	Genre             *string     `gorm:"type:varchar(100)" json:"genre" validate:"omitempty,max=100"`
	PriceCents        int64       `gorm:"not null" json:"price_cents" validate:"gt=0"`
	LicenseType       LicenseType `gorm:"type:varchar(20);not null;default:'basic'" json:"license_type" validate:"oneof=basic premium unlimited exclusive"`
	AudioURL          string      `gorm:"type:varchar(1024);not null" json:"audio_url" validate:"required"`
	PreviewURL        *string     `gorm:"type:varchar(1024)" json:"preview_url"`
	ProducerName      *string     `gorm:"type:varchar(255)" json:"producer_name"`
	LicensorLegalName *string     `gorm:"type:varchar(255)" json:"licensor_legal_name"`
	IsActive          bool        `gorm:"not null;index" json:"is_active"`
	CreatedAt         time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Beat) TableName() string {
	return "beats"
}

// BeforeCreate assigns an id unless the caller already chose one (uploads key on it).
func (b *Beat) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Beat) Validate() error {
	v := validator.New()
	return v.Struct(b)
}
