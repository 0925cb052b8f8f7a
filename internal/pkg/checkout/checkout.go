// Package checkout hands buyers off to the hosted payment links, one per
// license tier.
package checkout

import (
	"context"
	"net/url"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/env"
)

type Tier struct {
	LicenseType models.LicenseType `json:"license_type"`
	Name        string             `json:"name"`
	Format      string             `json:"format"`
	Price       string             `json:"price"`
	Features    []string           `json:"features"`
	PaymentLink string             `json:"-"`
	Available   bool               `json:"available"`
}

// ActiveBeats is the part of the catalog the hand-off needs.
type ActiveBeats interface {
	GetActiveByID(ctx context.Context, id string) (*models.Beat, error)
}

type Service struct {
	tiers []Tier
	beats ActiveBeats
}

// DefaultTiers is the tier table with payment links read from the environment.
func DefaultTiers() []Tier {
	return []Tier{
		{
			LicenseType: models.LicenseBasic,
			Name:        "Basic Lease",
			Format:      "MP3",
			Price:       "$29.99",
			Features:    []string{"10k streams", "1k sales", "MP3 format", "Great for demos"},
			PaymentLink: env.GetEnv("PAYMENT_LINK_BASIC", ""),
		},
		{
			LicenseType: models.LicensePremium,
			Name:        "Premium Lease",
			Format:      "WAV",
			Price:       "$49.99",
			Features:    []string{"50k streams", "5k sales", "WAV format", "Higher quality"},
			PaymentLink: env.GetEnv("PAYMENT_LINK_PREMIUM", ""),
		},
		{
			LicenseType: models.LicenseUnlimited,
			Name:        "Unlimited Lease",
			Format:      "WAV + Stems",
			Price:       "$99.99",
			Features:    []string{"Unlimited streams", "Unlimited sales", "WAV + Stems", "Professional mixing"},
			PaymentLink: env.GetEnv("PAYMENT_LINK_UNLIMITED", ""),
		},
		{
			LicenseType: models.LicenseExclusive,
			Name:        "Exclusive License",
			Format:      "Full Rights",
			Price:       "$299.99",
			Features:    []string{"Full ownership", "Master rights", "Publishing rights", "Beat removed from market"},
			PaymentLink: env.GetEnv("PAYMENT_LINK_EXCLUSIVE", ""),
		},
	}
}

func NewService(tiers []Tier, beats ActiveBeats) *Service {
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		t.Available = t.PaymentLink != ""
		out[i] = t
	}
	return &Service{tiers: out, beats: beats}
}

func (s *Service) Tiers() []Tier {
	out := make([]Tier, len(s.tiers))
	copy(out, s.tiers)
	return out
}

func (s *Service) tier(name string) (Tier, bool) {
	lt, ok := models.ParseLicenseType(name)
	if !ok {
		return Tier{}, false
	}
	for _, t := range s.tiers {
		if t.LicenseType == lt {
			return t, true
		}
	}
	return Tier{}, false
}

// RedirectURL returns the payment link for tier tagged with the beat id, after
// checking the beat is still for sale.
func (s *Service) RedirectURL(ctx context.Context, tierName, beatID string) (string, error) {
	t, ok := s.tier(tierName)
	if !ok {
		return "", apperror.NotFound("license tier %q not found", tierName)
	}
	if t.PaymentLink == "" {
		return "", apperror.NotFound("payment link for %s is not configured", t.Name)
	}
	if beatID == "" {
		return "", apperror.Validation("beat_id", "beat_id is required")
	}
	if _, err := s.beats.GetActiveByID(ctx, beatID); err != nil {
		return "", err
	}

	u, err := url.Parse(t.PaymentLink)
	if err != nil {
		return "", apperror.Unknown(err)
	}
	q := u.Query()
	q.Set("client_reference_id", beatID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
