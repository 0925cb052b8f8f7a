package beatadmin

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/app/repository"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/publisher"
)

// Uploader publishes a validated file and returns its public URL.
type Uploader interface {
	Publish(ctx context.Context, in publisher.Input) (string, error)
}

// Service runs the back office workflows over the record store and the publisher.
type Service struct {
	beats    repository.BeatRepository
	orders   repository.OrderRepository
	licenses repository.LicenseRepository
	events   repository.WebhookEventRepository
	uploader Uploader
	newID    func() string
}

func NewService(repos *repository.Repositories, uploader Uploader) *Service {
	return &Service{
		beats:    repos.Beat,
		orders:   repos.Order,
		licenses: repos.License,
		events:   repos.WebhookEvent,
		uploader: uploader,
		newID:    uuid.NewString,
	}
}

// Submit validates, uploads and persists a beat in that order. Any failure stops
// the run; files uploaded before the failure stay in storage and are logged.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	res := &Result{}
	res.enter(StateDraft)

	fail := func(err error) (*Result, error) {
		res.enter(StateFailed)
		for _, url := range res.Orphans {
			log.Warnf("[BeatAdmin] orphaned object %s (submission for beat %q failed: %v)", url, sub.BeatID, err)
		}
		return res, err
	}

	res.enter(StateValidating)
	if err := validateSubmission(&sub); err != nil {
		return fail(err)
	}

	var existing *models.Beat
	ownerID := sub.BeatID
	if sub.IsEdit() {
		beat, err := s.beats.GetByID(ctx, sub.BeatID)
		if err != nil {
			return fail(err)
		}
		existing = beat
	} else {
		ownerID = s.newID()
	}

	var audioURL, previewURL string
	if sub.Audio != nil && len(sub.Audio.Data) > 0 {
		res.enter(StateUploadingAudio)
		url, err := s.uploader.Publish(ctx, publisher.Input{
			Data:     sub.Audio.Data,
			MimeType: sub.Audio.MimeType,
			FileName: sub.Audio.FileName,
			Purpose:  publisher.PurposeAudio,
			OwnerID:  ownerID,
		})
		if err != nil {
			return fail(err)
		}
		audioURL = url
		res.Orphans = append(res.Orphans, url)
	}

	if sub.Preview != nil && len(sub.Preview.Data) > 0 {
		res.enter(StateUploadingPreview)
		url, err := s.uploader.Publish(ctx, publisher.Input{
			Data:     sub.Preview.Data,
			MimeType: sub.Preview.MimeType,
			FileName: sub.Preview.FileName,
			Purpose:  publisher.PurposeImage,
			OwnerID:  ownerID,
		})
		if err != nil {
			return fail(err)
		}
		previewURL = url
		res.Orphans = append(res.Orphans, url)
	}

	res.enter(StatePersisting)
	beat := buildBeat(ownerID, sub.Fields, existing, audioURL, previewURL)
	var err error
	if existing != nil {
		err = s.beats.Update(ctx, beat)
	} else {
		err = s.beats.Create(ctx, beat)
	}
	if err != nil {
		return fail(err)
	}

	res.Orphans = nil
	res.Beat = beat
	res.enter(StateDone)
	log.Infof("[BeatAdmin] saved beat %s (%q, edit=%t)", beat.ID, beat.Title, existing != nil)
	return res, nil
}

// buildBeat merges the form onto the stored beat; stored media is kept when no new file came in.
func buildBeat(id string, f Fields, existing *models.Beat, audioURL, previewURL string) *models.Beat {
	beat := &models.Beat{ID: id, IsActive: true}
	if existing != nil {
		*beat = *existing
	}

	beat.Title = f.Title
	beat.PriceCents = f.PriceCents
	beat.LicenseType = models.LicenseType(f.LicenseType)
	beat.BPM = mergeBPM(beat.BPM, f.BPM)
	beat.Key = mergeText(beat.Key, f.Key)
	beat.Genre = mergeText(beat.Genre, f.Genre)
	beat.ProducerName = mergeText(beat.ProducerName, f.ProducerName)
	beat.LicensorLegalName = mergeText(beat.LicensorLegalName, f.LicensorLegalName)
	if f.IsActive != nil {
		beat.IsActive = *f.IsActive
	}
	if audioURL != "" {
		beat.AudioURL = audioURL
	}
	if previewURL != "" {
		beat.PreviewURL = &previewURL
	}
	return beat
}

func mergeText(stored, in *string) *string {
	switch {
	case in == nil:
		return stored
	case *in == "":
		return nil
	}
	return in
}

func mergeBPM(stored, in *int) *int {
	switch {
	case in == nil:
		return stored
	case *in == 0:
		return nil
	}
	return in
}

// Toggle sets visibility only.
func (s *Service) Toggle(ctx context.Context, id string, active bool) (*models.Beat, error) {
	beat, err := s.beats.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	log.Infof("[BeatAdmin] beat %s is_active=%t", id, active)
	return beat, nil
}

// Delete removes the row. Its storage objects are left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.beats.Delete(ctx, id); err != nil {
		return err
	}
	log.Infof("[BeatAdmin] deleted beat %s", id)
	return nil
}

// AllBeats includes inactive beats.
func (s *Service) AllBeats(ctx context.Context) ([]models.Beat, error) {
	return s.beats.List(ctx, repository.BeatFilter{})
}

func (s *Service) Beat(ctx context.Context, id string) (*models.Beat, error) {
	return s.beats.GetByID(ctx, id)
}

func (s *Service) Orders(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

func (s *Service) Order(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Licenses filters by tier; an empty tier lists all.
func (s *Service) Licenses(ctx context.Context, licenseType string) ([]models.License, error) {
	filter := repository.LicenseFilter{}
	if licenseType != "" {
		lt, ok := models.ParseLicenseType(licenseType)
		if !ok {
			return nil, apperror.Validation("license_type", "License type must be one of basic, premium, unlimited, exclusive")
		}
		filter.LicenseType = lt
	}
	return s.licenses.List(ctx, filter)
}

func (s *Service) WebhookEvents(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	return s.events.List(ctx, limit)
}

func (s *Service) WebhookEvent(ctx context.Context, id string) (*models.WebhookEvent, error) {
	return s.events.GetByID(ctx, id)
}
