package catalog

import (
	"context"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/app/repository"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

const DefaultFeatured = 3

// Service is the public, read-only view of beats. Only active beats are visible
// and every call goes to the store.
type Service struct {
	beats repository.BeatRepository
}

func NewService(beats repository.BeatRepository) *Service {
	return &Service{beats: beats}
}

// ListActive returns active beats, newest first.
func (s *Service) ListActive(ctx context.Context) ([]models.Beat, error) {
	return s.beats.List(ctx, repository.BeatFilter{ActiveOnly: true})
}

// ListFeatured returns the first n active beats. n <= 0 means DefaultFeatured.
func (s *Service) ListFeatured(ctx context.Context, n int) ([]models.Beat, error) {
	if n <= 0 {
		n = DefaultFeatured
	}
	return s.beats.List(ctx, repository.BeatFilter{ActiveOnly: true, Limit: n})
}

// GetActiveByID hides inactive beats behind NotFound.
func (s *Service) GetActiveByID(ctx context.Context, id string) (*models.Beat, error) {
	beat, err := s.beats.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !beat.IsActive {
		return nil, apperror.NotFound("beat %s not found", id)
	}
	return beat, nil
}
