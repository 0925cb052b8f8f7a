// Package leads validates beat pack sign-ups and forwards them to the
// configured form-ingestion endpoint.
package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/env"
)

const defaultSource = "Beat Pack Landing Page"

var usPhone = regexp.MustCompile(`^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`)

// Form is the submitted sign-up.
type Form struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,us_phone"`
}

// Meta is request context captured alongside the form.
type Meta struct {
	UserAgent string
	Referrer  string
}

// Lead is what gets forwarded.
type Lead struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
}

type Config struct {
	EndpointURL string
	Source      string
	Timeout     time.Duration
}

func LoadConfig() Config {
	return Config{
		EndpointURL: strings.TrimSpace(env.GetEnv("LEADS_ENDPOINT_URL", "")),
		Source:      env.GetEnv("LEADS_SOURCE", defaultSource),
		Timeout:     15 * time.Second,
	}
}

type Forwarder struct {
	cfg        Config
	HTTPClient *http.Client
	validate   *validator.Validate
	now        func() time.Time
	wg         sync.WaitGroup
}

func NewForwarder(cfg Config) *Forwarder {
	if cfg.Source == "" {
		cfg.Source = defaultSource
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Forwarder{
		cfg:        cfg,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		validate:   newValidator(),
		now:        time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("us_phone", func(fl validator.FieldLevel) bool {
		return usPhone.MatchString(fl.Field().String())
	})
	return v
}

var messages = map[string]map[string]string{
	"firstName": {"required": "First name is required"},
	"lastName":  {"required": "Last name is required"},
	"email":     {"required": "Email is required", "email": "Please enter a valid email address"},
	"phone":     {"us_phone": "Please enter a valid phone number (e.g., 555-123-4567)"},
}

// Normalize trims and validates the form and stamps the capture metadata.
func (f *Forwarder) Normalize(form Form, meta Meta) (Lead, error) {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	form.Phone = strings.TrimSpace(form.Phone)

	if err := f.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := messages[fe.Field()][fe.Tag()]
			if msg == "" {
				msg = fe.Field() + " is invalid"
			}
			return Lead{}, apperror.Validation(fe.Field(), msg)
		}
		return Lead{}, apperror.Validation("", err.Error())
	}

	referrer := strings.TrimSpace(meta.Referrer)
	if referrer == "" {
		referrer = "Direct"
	}
	return Lead{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Timestamp: f.now().UTC().Format(time.RFC3339),
		Source:    f.cfg.Source,
		UserAgent: meta.UserAgent,
		Referrer:  referrer,
	}, nil
}

// Submit validates synchronously and delivers in the background. Delivery
// problems are logged and never reach the caller.
func (f *Forwarder) Submit(form Form, meta Meta) (Lead, error) {
	lead, err := f.Normalize(form, meta)
	if err != nil {
		return Lead{}, err
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.cfg.Timeout)
		defer cancel()
		if err := f.Deliver(ctx, lead); err != nil {
			log.Warnf("[Leads] delivery failed, lead kept in log only: %s %s <%s>: %v", lead.FirstName, lead.LastName, lead.Email, err)
		}
	}()
	return lead, nil
}

// Deliver posts one lead to the ingestion endpoint.
func (f *Forwarder) Deliver(ctx context.Context, lead Lead) error {
	if f.cfg.EndpointURL == "" {
		log.Infof("[Leads] captured %s %s <%s> (no endpoint configured)", lead.FirstName, lead.LastName, lead.Email)
		return nil
	}

	body, err := json.Marshal(lead)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Apps Script endpoints answer with a redirect; anything below 400 is accepted.
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("lead endpoint returned status=%d body=%s", resp.StatusCode, string(respBody))
	}
	log.Infof("[Leads] forwarded lead <%s>", lead.Email)
	return nil
}

// Wait blocks until background deliveries finish. Used on shutdown.
func (f *Forwarder) Wait() {
	f.wg.Wait()
}
