package repository

import (
	"context"
	"time"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"gorm.io/gorm"
)

// beatRepository implements the BeatRepository interface
type beatRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBeatRepository creates a new beat repository instance
func NewBeatRepository(db *gorm.DB) BeatRepository {
	return &beatRepository{db: db, now: time.Now}
}

// List returns beats newest first, optionally only the visible ones.
func (r *beatRepository) List(ctx context.Context, filter BeatFilter) ([]models.Beat, error) {
	var beats []models.Beat
	q := r.db.WithContext(ctx).Model(&models.Beat{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	q = q.Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&beats).Error; err != nil {
		return nil, translate("list beats", "beat", "", err)
	}
	return beats, nil
}

func (r *beatRepository) GetByID(ctx context.Context, id string) (*models.Beat, error) {
	var beat models.Beat
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&beat).Error
	if err != nil {
		return nil, translate("get beat", "beat", id, err)
	}
	return &beat, nil
}

func (r *beatRepository) Create(ctx context.Context, beat *models.Beat) error {
	return translate("create beat", "beat", beat.ID, r.db.WithContext(ctx).Create(beat).Error)
}

// Update overwrites every column except id and created_at and stamps updated_at.
func (r *beatRepository) Update(ctx context.Context, beat *models.Beat) error {
	beat.UpdatedAt = r.now()
	res := r.db.WithContext(ctx).Model(&models.Beat{}).
		Where("id = ?", beat.ID).
		Select("*").Omit("id", "created_at").
		Updates(beat)
	if res.Error != nil {
		return translate("update beat", "beat", beat.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.ensureExists(ctx, beat.ID)
	}
	return nil
}

// Delete removes the row only; storage objects are left in place.
func (r *beatRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Beat{})
	if res.Error != nil {
		return translate("delete beat", "beat", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("beat %s not found", id)
	}
	return nil
}

// SetActive touches only is_active and updated_at and returns the fresh row.
func (r *beatRepository) SetActive(ctx context.Context, id string, active bool) (*models.Beat, error) {
	res := r.db.WithContext(ctx).Model(&models.Beat{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"is_active":  active,
			"updated_at": r.now(),
		})
	if res.Error != nil {
		return nil, translate("set beat active", "beat", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if err := r.ensureExists(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// ensureExists disambiguates a zero-row update: MySQL reports changed rows, not matched rows.
func (r *beatRepository) ensureExists(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Beat{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate("check beat", "beat", id, err)
	}
	if count == 0 {
		return apperror.NotFound("beat %s not found", id)
	}
	return nil
}
