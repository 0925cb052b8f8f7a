// Package stripehook receives Stripe checkout webhooks and turns completed
// checkouts into orders, licenses and license documents.
package stripehook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/datatypes"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/app/repository"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/env"
	"github.com/fivedlabs/beatstore/internal/pkg/licensedoc"
	"github.com/fivedlabs/beatstore/internal/pkg/publisher"
)

// DocumentPublisher stores a rendered license document.
type DocumentPublisher interface {
	PublishAt(ctx context.Context, in publisher.Input, name string) (string, error)
}

type Config struct {
	WebhookSecret string
	Tolerance     time.Duration
}

func LoadConfig() (Config, error) {
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret == "" {
		return Config{}, errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	return Config{WebhookSecret: secret, Tolerance: DefaultTolerance}, nil
}

type Receiver struct {
	cfg       Config
	events    repository.WebhookEventRepository
	checkouts repository.CheckoutRepository
	docs      DocumentPublisher
	defaults  licensedoc.Defaults
	now       func() time.Time
}

func NewReceiver(cfg Config, repos *repository.Repositories, docs DocumentPublisher, defaults licensedoc.Defaults) *Receiver {
	return &Receiver{
		cfg:       cfg,
		events:    repos.WebhookEvent,
		checkouts: repos.Checkout,
		docs:      docs,
		defaults:  defaults,
		now:       time.Now,
	}
}

// Handle verifies and processes one delivery. Only a bad signature or an
// unreadable payload is returned as an error; processing problems are logged,
// recorded on the stored event and reported as OutcomeFailed so Stripe does
// not retry.
func (r *Receiver) Handle(ctx context.Context, payload []byte, signatureHeader string) (Outcome, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, r.cfg.WebhookSecret,
		webhook.ConstructEventOptions{Tolerance: r.cfg.Tolerance, IgnoreAPIVersionMismatch: true})
	if err != nil {
		if isSignatureError(err) {
			log.Warnf("[StripeWebhook] rejected delivery: %v", err)
			return "", apperror.Validation("signature", "invalid signature: "+err.Error())
		}
		log.Errorf("[StripeWebhook] invalid payload: %v", err)
		return "", apperror.Validation("payload", "invalid payload")
	}

	stored := r.record(ctx, event, payload)
	if stored != nil && stored.Processed {
		log.Infof("[StripeWebhook] event %s already processed", event.ID)
		return OutcomeDuplicate, nil
	}

	outcome, procErr := r.process(ctx, event)
	if procErr != nil {
		log.Errorf("[StripeWebhook] event %s (%s): %v", event.ID, event.Type, procErr)
	}
	if stored != nil {
		msg := ""
		if procErr != nil {
			msg = procErr.Error()
		}
		if err := r.events.MarkProcessed(ctx, stored.ID, msg); err != nil {
			log.Errorf("[StripeWebhook] failed to mark event %s: %v", event.ID, err)
		}
	}
	return outcome, nil
}

// record stores the delivery. A storage failure is logged and processing
// continues; checkout writes are idempotent on their own.
func (r *Receiver) record(ctx context.Context, event stripe.Event, payload []byte) *models.WebhookEvent {
	eventID := strings.TrimSpace(event.ID)
	if eventID == "" {
		sum := sha256.Sum256(payload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	_, stored, err := r.events.CreateIfNotExists(ctx, &models.WebhookEvent{
		Source:          models.WebhookSourceStripe,
		ProviderEventID: eventID,
		EventType:       string(event.Type),
		Payload:         datatypes.JSON(payload),
	})
	if err != nil {
		log.Errorf("[StripeWebhook] failed to store event %s: %v", eventID, err)
		return nil
	}
	return stored
}

func (r *Receiver) process(ctx context.Context, event stripe.Event) (Outcome, error) {
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		log.Infof("[StripeWebhook] ignoring event type %s", event.Type)
		return OutcomeIgnored, nil
	}
	if event.Data == nil {
		return OutcomeFailed, errors.New("checkout event has no data")
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return OutcomeFailed, fmt.Errorf("decode checkout session: %w", err)
	}

	rec, err := checkoutRecord(&session)
	if err != nil {
		return OutcomeFailed, err
	}

	result, err := r.checkouts.RecordCheckout(ctx, rec)
	if err != nil {
		return OutcomeFailed, err
	}
	if result.Duplicate {
		log.Infof("[StripeWebhook] checkout %s already recorded as order %s", rec.StripeCheckoutID, result.Order.ID)
		if result.License == nil || result.License.LicenseURL != "" {
			return OutcomeDuplicate, nil
		}
		// An earlier delivery stored the order but not the document.
		if err := r.issueDocument(ctx, rec, result); err != nil {
			return OutcomeFailed, fmt.Errorf("license document for %s: %w", result.License.ID, err)
		}
		log.Infof("[StripeWebhook] issued missing license document for %s", result.License.ID)
		return OutcomeProcessed, nil
	}
	if rec.LicenseType == models.LicenseExclusive && result.Beat != nil {
		log.Infof("[StripeWebhook] deactivated beat %s after exclusive sale", rec.BeatID)
	}

	if err := r.issueDocument(ctx, rec, result); err != nil {
		// The order stands; only the document is missing.
		return OutcomeFailed, fmt.Errorf("license document for %s: %w", result.License.ID, err)
	}

	log.Infof("[StripeWebhook] processed checkout %s: beat %s, license %s", rec.StripeCheckoutID, rec.BeatID, rec.LicenseType)
	return OutcomeProcessed, nil
}

func (r *Receiver) issueDocument(ctx context.Context, rec repository.CheckoutRecord, result *repository.CheckoutResult) error {
	doc, err := licensedoc.Render(r.defaults, licensedoc.Input{
		LicenseType:   rec.LicenseType,
		LicenseNumber: result.Order.ID,
		LicenseeName:  rec.CustomerName,
		LicenseeEmail: rec.CustomerEmail,
		Beat:          result.Beat,
		PurchasedAt:   r.now(),
	})
	if err != nil {
		return err
	}

	url, err := r.docs.PublishAt(ctx, publisher.Input{
		Data:     doc,
		MimeType: "text/plain; charset=utf-8",
		FileName: "license.txt",
		Purpose:  publisher.PurposeLicense,
		OwnerID:  result.Order.ID,
	}, result.License.ID+".txt")
	if err != nil {
		return err
	}
	return r.checkouts.SetLicenseURL(ctx, result.License.ID, url)
}

// checkoutRecord validates the session metadata the storefront attaches.
func checkoutRecord(s *stripe.CheckoutSession) (repository.CheckoutRecord, error) {
	if s.ID == "" {
		return repository.CheckoutRecord{}, errors.New("checkout session has no id")
	}

	beatID := strings.TrimSpace(s.Metadata["beat_id"])
	if beatID == "" {
		beatID = strings.TrimSpace(s.ClientReferenceID)
	}
	if beatID == "" {
		return repository.CheckoutRecord{}, errors.New("missing required metadata: beat_id")
	}
	if _, err := uuid.Parse(beatID); err != nil {
		return repository.CheckoutRecord{}, fmt.Errorf("invalid beat_id format: %s", beatID)
	}

	rawType := s.Metadata["license_type"]
	if strings.TrimSpace(rawType) == "" {
		return repository.CheckoutRecord{}, errors.New("missing required metadata: license_type")
	}
	licenseType, ok := models.ParseLicenseType(rawType)
	if !ok {
		return repository.CheckoutRecord{}, fmt.Errorf("unknown license_type: %s", rawType)
	}

	var userID *string
	if raw := strings.TrimSpace(s.Metadata["user_id"]); raw != "" {
		if _, err := uuid.Parse(raw); err == nil {
			userID = &raw
		} else {
			log.Warnf("[StripeWebhook] invalid user_id %q on checkout %s, proceeding as guest", raw, s.ID)
		}
	}

	return repository.CheckoutRecord{
		StripeCheckoutID: s.ID,
		UserID:           userID,
		CustomerEmail:    customerEmail(s),
		CustomerName:     customerName(s),
		TotalCents:       s.AmountTotal,
		BeatID:           beatID,
		LicenseType:      licenseType,
		PriceCents:       s.AmountTotal,
	}, nil
}
