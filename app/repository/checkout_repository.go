package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fivedlabs/beatstore/app/models"
	"gorm.io/gorm"
)

// CheckoutRecord is the normalized outcome of a completed single-beat checkout.
type CheckoutRecord struct {
	StripeCheckoutID string
	UserID           *string
	CustomerEmail    string
	CustomerName     string
	TotalCents       int64
	BeatID           string
	LicenseType      models.LicenseType
	PriceCents       int64
}

// CheckoutResult carries the rows written for a checkout. Beat is nil when the
// referenced beat no longer exists (beat_id is a weak reference).
type CheckoutResult struct {
	Order   *models.Order
	Item    *models.OrderItem
	License *models.License
	Beat    *models.Beat
	// Duplicate is set when the checkout id was already recorded; nothing new was written.
	Duplicate bool
}

type checkoutRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCheckoutRepository(db *gorm.DB) CheckoutRepository {
	return &checkoutRepository{db: db, now: time.Now}
}

// RecordCheckout writes order, order item and license in one transaction.
// An exclusive license takes the beat off the catalog in the same transaction.
func (r *checkoutRepository) RecordCheckout(ctx context.Context, rec CheckoutRecord) (*CheckoutResult, error) {
	result := &CheckoutResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Order
		err := tx.Preload("Items").Preload("Items.Licenses").
			Where("stripe_checkout_id = ?", rec.StripeCheckoutID).
			First(&existing).Error
		if err == nil {
			result.Duplicate = true
			result.Order = &existing
			if len(existing.Items) > 0 {
				result.Item = &existing.Items[0]
				if len(existing.Items[0].Licenses) > 0 {
					result.License = &existing.Items[0].Licenses[0]
				}
				var beat models.Beat
				if err := tx.Where("id = ?", result.Item.BeatID).First(&beat).Error; err == nil {
					result.Beat = &beat
				}
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var beat models.Beat
		if err := tx.Where("id = ?", rec.BeatID).First(&beat).Error; err == nil {
			result.Beat = &beat
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		order := &models.Order{
			UserID:           rec.UserID,
			TotalCents:       rec.TotalCents,
			Status:           models.OrderStatusCompleted,
			StripeCheckoutID: rec.StripeCheckoutID,
			CustomerEmail:    rec.CustomerEmail,
			CustomerName:     rec.CustomerName,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		item := &models.OrderItem{
			OrderID:     order.ID,
			BeatID:      rec.BeatID,
			PriceCents:  rec.PriceCents,
			LicenseType: rec.LicenseType,
		}
		if err := tx.Create(item).Error; err != nil {
			return err
		}

		license := &models.License{
			OrderItemID: item.ID,
			UserID:      rec.UserID,
			BeatID:      rec.BeatID,
			LicenseType: rec.LicenseType,
		}
		if err := tx.Create(license).Error; err != nil {
			return err
		}

		if rec.LicenseType == models.LicenseExclusive && result.Beat != nil {
			if err := tx.Model(&models.Beat{}).Where("id = ?", rec.BeatID).
				UpdateColumns(map[string]any{"is_active": false, "updated_at": r.now()}).Error; err != nil {
				return err
			}
			result.Beat.IsActive = false
		}

		result.Order, result.Item, result.License = order, item, license
		return nil
	})
	if err != nil {
		return nil, translate("record checkout", "checkout", rec.StripeCheckoutID, err)
	}
	return result, nil
}

func (r *checkoutRepository) SetLicenseURL(ctx context.Context, licenseID, url string) error {
	err := r.db.WithContext(ctx).Model(&models.License{}).
		Where("id = ?", licenseID).
		UpdateColumn("license_url", url).Error
	return translate("set license url", "license", licenseID, err)
}
