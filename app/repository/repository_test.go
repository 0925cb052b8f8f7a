package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

// dryRunDB builds statements without a server. Queries return no rows.
func dryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "beatstore:secret@tcp(127.0.0.1:3306)/beatstore?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var statements []string
	capture := func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture_update", capture))
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("test:capture_delete", capture))
	return db, &statements
}

func TestBeatRepository_List(t *testing.T) {
	tests := []struct {
		name       string
		filter     BeatFilter
		wantActive bool
		wantLimit  bool
	}{
		{name: "all beats", filter: BeatFilter{}},
		{name: "active only", filter: BeatFilter{ActiveOnly: true}, wantActive: true},
		{name: "featured", filter: BeatFilter{ActiveOnly: true, Limit: 3}, wantActive: true, wantLimit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, statements := dryRunDB(t)
			repo := NewBeatRepository(db)

			beats, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Empty(t, beats)

			require.Len(t, *statements, 1)
			sql := (*statements)[0]
			assert.Contains(t, sql, "FROM `beats`")
			assert.Contains(t, sql, "ORDER BY created_at DESC")
			assert.Equal(t, tt.wantActive, strings.Contains(sql, "is_active = ?"))
			assert.Equal(t, tt.wantLimit, strings.Contains(sql, "LIMIT"))
		})
	}
}

func TestBeatRepository_SetActiveTouchesOnlyVisibility(t *testing.T) {
	db, statements := dryRunDB(t)
	repo := &beatRepository{db: db, now: func() time.Time { return time.Unix(1700000000, 0) }}

	// Dry runs affect no rows, so the existence check reports the beat as missing.
	_, err := repo.SetActive(context.Background(), "beat-1", false)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	require.GreaterOrEqual(t, len(*statements), 1)
	update := (*statements)[0]
	assert.Contains(t, update, "UPDATE `beats` SET")
	assert.Contains(t, update, "`is_active`=?")
	assert.Contains(t, update, "`updated_at`=?")
	assert.NotContains(t, update, "`title`")
	assert.NotContains(t, update, "`price_cents`")
}

func TestBeatRepository_UpdateKeepsIdentity(t *testing.T) {
	db, statements := dryRunDB(t)
	repo := NewBeatRepository(db)

	beat := &models.Beat{
		ID:          "beat-1",
		Title:       "Night Drive",
		PriceCents:  2999,
		LicenseType: models.LicenseBasic,
		AudioURL:    "https://cdn.example.com/audio/beat-1/1.mp3",
	}
	err := repo.Update(context.Background(), beat)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.False(t, beat.UpdatedAt.IsZero())

	require.GreaterOrEqual(t, len(*statements), 2)
	update := (*statements)[0]
	assert.Contains(t, update, "`title`=?")
	assert.Contains(t, update, "`is_active`=?")
	assert.NotContains(t, update, "`created_at`=")
	assert.NotContains(t, update, "`id`=")
	assert.Contains(t, (*statements)[1], "count(*)")
}

func TestBeatRepository_DeleteMissing(t *testing.T) {
	db, _ := dryRunDB(t)
	repo := NewBeatRepository(db)

	err := repo.Delete(context.Background(), "nope")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLicenseRepository_ListFilter(t *testing.T) {
	db, statements := dryRunDB(t)
	repo := NewLicenseRepository(db)

	_, err := repo.List(context.Background(), LicenseFilter{LicenseType: models.LicenseExclusive})
	require.NoError(t, err)
	require.NotEmpty(t, *statements)
	assert.Contains(t, (*statements)[0], "license_type = ?")
	assert.Contains(t, (*statements)[0], "ORDER BY created_at DESC")
}

func TestWebhookEventRepository_CreateIfNotExistsUsesUpsertGuard(t *testing.T) {
	db, statements := dryRunDB(t)
	repo := NewWebhookEventRepository(db)

	event := &models.WebhookEvent{
		Source:          models.WebhookSourceStripe,
		ProviderEventID: "evt_123",
		EventType:       "checkout.session.completed",
	}
	created, stored, err := repo.CreateIfNotExists(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NotNil(t, stored)

	require.Len(t, *statements, 2)
	assert.Contains(t, (*statements)[0], "INSERT INTO `webhook_events`")
	assert.Contains(t, (*statements)[0], "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, (*statements)[1], "provider_event_id = ?")
}

func TestWebhookEventRepository_ListDefaultsLimit(t *testing.T) {
	db, statements := dryRunDB(t)
	repo := NewWebhookEventRepository(db)

	_, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, *statements, 1)
	assert.Contains(t, (*statements)[0], "LIMIT")
}
