// Package repositorytest provides in-memory repositories for tests.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/app/repository"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

// Beats is an in-memory BeatRepository that counts calls.
type Beats struct {
	mu    sync.Mutex
	rows  map[string]models.Beat
	clock time.Time

	Calls int
	// Err, when set, is returned by every call.
	Err error
}

func NewBeats(seed ...models.Beat) *Beats {
	b := &Beats{rows: map[string]models.Beat{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, beat := range seed {
		if beat.CreatedAt.IsZero() {
			beat.CreatedAt = b.tick()
		}
		b.rows[beat.ID] = beat
	}
	return b
}

// tick hands out strictly increasing timestamps so ordering is deterministic.
func (b *Beats) tick() time.Time {
	b.clock = b.clock.Add(time.Second)
	return b.clock
}

func (b *Beats) List(ctx context.Context, filter repository.BeatFilter) ([]models.Beat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls++
	if b.Err != nil {
		return nil, b.Err
	}
	out := make([]models.Beat, 0, len(b.rows))
	for _, beat := range b.rows {
		if filter.ActiveOnly && !beat.IsActive {
			continue
		}
		out = append(out, beat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (b *Beats) GetByID(ctx context.Context, id string) (*models.Beat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls++
	if b.Err != nil {
		return nil, b.Err
	}
	beat, ok := b.rows[id]
	if !ok {
		return nil, apperror.NotFound("beat %s not found", id)
	}
	return &beat, nil
}

func (b *Beats) Create(ctx context.Context, beat *models.Beat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls++
	if b.Err != nil {
		return b.Err
	}
	if beat.ID == "" {
		beat.ID = uuid.NewString()
	}
	now := b.tick()
	beat.CreatedAt, beat.UpdatedAt = now, now
	b.rows[beat.ID] = *beat
	return nil
}

func (b *Beats) Update(ctx context.Context, beat *models.Beat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls++
	if b.Err != nil {
		return b.Err
	}
	existing, ok := b.rows[beat.ID]
	if !ok {
		return apperror.NotFound("beat %s not found", beat.ID)
	}
	beat.CreatedAt = existing.CreatedAt
	beat.UpdatedAt = b.tick()
	b.rows[beat.ID] = *beat
	return nil
}

func (b *Beats) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls++
	if b.Err != nil {
		return b.Err
	}
	if _, ok := b.rows[id]; !ok {
		return apperror.NotFound("beat %s not found", id)
	}
	delete(b.rows, id)
	return nil
}

func (b *Beats) SetActive(ctx context.Context, id string, active bool) (*models.Beat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls++
	if b.Err != nil {
		return nil, b.Err
	}
	beat, ok := b.rows[id]
	if !ok {
		return nil, apperror.NotFound("beat %s not found", id)
	}
	beat.IsActive = active
	beat.UpdatedAt = b.tick()
	b.rows[id] = beat
	return &beat, nil
}

// Get reads a row without counting it as a call.
func (b *Beats) Get(id string) (models.Beat, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	beat, ok := b.rows[id]
	return beat, ok
}

// Orders serves a fixed set of orders.
type Orders struct {
	Rows []models.Order
	Err  error
}

func (o *Orders) List(ctx context.Context) ([]models.Order, error) {
	return o.Rows, o.Err
}

func (o *Orders) GetByID(ctx context.Context, id string) (*models.Order, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	for i := range o.Rows {
		if o.Rows[i].ID == id {
			return &o.Rows[i], nil
		}
	}
	return nil, apperror.NotFound("order %s not found", id)
}

// Licenses serves a fixed set of licenses.
type Licenses struct {
	Rows []models.License
	Err  error
}

func (l *Licenses) List(ctx context.Context, filter repository.LicenseFilter) ([]models.License, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	var out []models.License
	for _, row := range l.Rows {
		if filter.LicenseType == "" || row.LicenseType == filter.LicenseType {
			out = append(out, row)
		}
	}
	return out, nil
}

func (l *Licenses) GetByID(ctx context.Context, id string) (*models.License, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	for i := range l.Rows {
		if l.Rows[i].ID == id {
			return &l.Rows[i], nil
		}
	}
	return nil, apperror.NotFound("license %s not found", id)
}

// WebhookEvents deduplicates on (source, provider event id) like the real table.
type WebhookEvents struct {
	mu   sync.Mutex
	Rows []models.WebhookEvent
	Err  error
}

func (w *WebhookEvents) List(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return nil, w.Err
	}
	out := make([]models.WebhookEvent, 0, len(w.Rows))
	for i := len(w.Rows) - 1; i >= 0; i-- {
		out = append(out, w.Rows[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (w *WebhookEvents) GetByID(ctx context.Context, id string) (*models.WebhookEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return nil, w.Err
	}
	for i := range w.Rows {
		if w.Rows[i].ID == id {
			ev := w.Rows[i]
			return &ev, nil
		}
	}
	return nil, apperror.NotFound("webhook event %s not found", id)
}

func (w *WebhookEvents) CreateIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return false, nil, w.Err
	}
	for i := range w.Rows {
		if w.Rows[i].Source == event.Source && w.Rows[i].ProviderEventID == event.ProviderEventID {
			ev := w.Rows[i]
			return false, &ev, nil
		}
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	w.Rows = append(w.Rows, *event)
	stored := *event
	return true, &stored, nil
}

func (w *WebhookEvents) MarkProcessed(ctx context.Context, id string, processingError string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	for i := range w.Rows {
		if w.Rows[i].ID == id {
			w.Rows[i].Processed = processingError == ""
			w.Rows[i].ProcessingError = processingError
			return nil
		}
	}
	return apperror.NotFound("webhook event %s not found", id)
}

// Checkouts records checkouts against a Beats store.
type Checkouts struct {
	mu    sync.Mutex
	Beats *Beats

	Records     []repository.CheckoutRecord
	Orders      map[string]*repository.CheckoutResult
	LicenseURLs map[string]string
	Err         error
}

func NewCheckouts(beats *Beats) *Checkouts {
	return &Checkouts{
		Beats:       beats,
		Orders:      map[string]*repository.CheckoutResult{},
		LicenseURLs: map[string]string{},
	}
}

func (c *Checkouts) RecordCheckout(ctx context.Context, rec repository.CheckoutRecord) (*repository.CheckoutResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if existing, ok := c.Orders[rec.StripeCheckoutID]; ok {
		dup := *existing
		dup.Duplicate = true
		return &dup, nil
	}
	c.Records = append(c.Records, rec)

	order := &models.Order{ID: uuid.NewString(), UserID: rec.UserID, TotalCents: rec.TotalCents,
		Status: models.OrderStatusCompleted, StripeCheckoutID: rec.StripeCheckoutID,
		CustomerEmail: rec.CustomerEmail, CustomerName: rec.CustomerName}
	item := &models.OrderItem{ID: uuid.NewString(), OrderID: order.ID, BeatID: rec.BeatID,
		PriceCents: rec.PriceCents, LicenseType: rec.LicenseType}
	license := &models.License{ID: uuid.NewString(), OrderItemID: item.ID, UserID: rec.UserID,
		BeatID: rec.BeatID, LicenseType: rec.LicenseType}

	result := &repository.CheckoutResult{Order: order, Item: item, License: license}
	if c.Beats != nil {
		if beat, ok := c.Beats.Get(rec.BeatID); ok {
			if rec.LicenseType == models.LicenseExclusive {
				updated, err := c.Beats.SetActive(ctx, rec.BeatID, false)
				if err != nil {
					return nil, err
				}
				beat = *updated
			}
			result.Beat = &beat
		}
	}
	c.Orders[rec.StripeCheckoutID] = result
	return result, nil
}

func (c *Checkouts) SetLicenseURL(ctx context.Context, licenseID, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.LicenseURLs[licenseID] = url
	for _, result := range c.Orders {
		if result.License != nil && result.License.ID == licenseID {
			result.License.LicenseURL = url
		}
	}
	return nil
}

// Repositories bundles fresh in-memory stores.
func Repositories(seed ...models.Beat) (*repository.Repositories, *Beats) {
	beats := NewBeats(seed...)
	return &repository.Repositories{
		Beat:         beats,
		Order:        &Orders{},
		License:      &Licenses{},
		WebhookEvent: &WebhookEvents{},
		Checkout:     NewCheckouts(beats),
	}, beats
}
