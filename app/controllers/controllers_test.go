package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/app/repository/repositorytest"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/beatadmin"
	"github.com/fivedlabs/beatstore/internal/pkg/catalog"
	"github.com/fivedlabs/beatstore/internal/pkg/checkout"
	"github.com/fivedlabs/beatstore/internal/pkg/leads"
	"github.com/fivedlabs/beatstore/internal/pkg/licensedoc"
	"github.com/fivedlabs/beatstore/internal/pkg/publisher"
	"github.com/fivedlabs/beatstore/internal/pkg/stripehook"
)

type fakeUploader struct {
	calls []publisher.Input
}

func (f *fakeUploader) Publish(ctx context.Context, in publisher.Input) (string, error) {
	f.calls = append(f.calls, in)
	return fmt.Sprintf("https://cdn.example.com/%s/%s/%d", in.Purpose, in.OwnerID, len(f.calls)), nil
}

func (f *fakeUploader) PublishAt(ctx context.Context, in publisher.Input, name string) (string, error) {
	return "https://cdn.example.com/licenses/" + in.OwnerID + "/" + name, nil
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func seedBeats() []models.Beat {
	return []models.Beat{
		{ID: "live", Title: "Live", PriceCents: 2999, LicenseType: models.LicenseBasic, AudioURL: "https://cdn.example.com/a", IsActive: true},
		{ID: "hidden", Title: "Hidden", PriceCents: 2999, LicenseType: models.LicenseBasic, AudioURL: "https://cdn.example.com/b", IsActive: false},
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "validation", err: apperror.Validation("title", "Title is required"), wantStatus: 400, wantDetail: "Title is required"},
		{name: "not found", err: apperror.NotFound("beat %s not found", "x"), wantStatus: 404, wantDetail: "beat x not found"},
		{name: "storage", err: apperror.StorageUnavailable("bucket missing", nil), wantStatus: 503, wantDetail: "bucket missing"},
		{name: "fiber error", err: fiber.ErrMethodNotAllowed, wantStatus: 405, wantDetail: "Method Not Allowed"},
		{name: "foreign error is hidden", err: errors.New("dial tcp 10.0.0.1:3306"), wantStatus: 500, wantDetail: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantDetail, decode(t, resp)["detail"])
		})
	}
}

func catalogApp(beats *repositorytest.Beats) *fiber.App {
	cc := NewCatalogController(catalog.NewService(beats))
	app := newApp()
	app.Get("/api/beats", cc.HandleList)
	app.Get("/api/beats/featured", cc.HandleFeatured)
	app.Get("/api/beats/:id", cc.HandleGet)
	return app
}

func TestCatalogController(t *testing.T) {
	app := catalogApp(repositorytest.NewBeats(seedBeats()...))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCount  int
	}{
		{name: "list hides inactive", path: "/api/beats", wantStatus: 200, wantCount: 1},
		{name: "featured", path: "/api/beats/featured?limit=5", wantStatus: 200, wantCount: 1},
		{name: "active beat", path: "/api/beats/live", wantStatus: 200},
		{name: "inactive beat is not found", path: "/api/beats/hidden", wantStatus: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decode(t, resp)
			if list, ok := body["data"].([]any); ok {
				assert.Len(t, list, tt.wantCount)
			}
		})
	}
}

func TestCatalogController_StoreFailureIsGeneric(t *testing.T) {
	beats := repositorytest.NewBeats()
	beats.Err = apperror.Unavailable("list beats", errors.New("Error 1045: Access denied for user 'beatstore'"))
	app := catalogApp(beats)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/beats", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, catalogFailure, decode(t, resp)["detail"])
}

func adminApp() (*fiber.App, *repositorytest.Beats, *fakeUploader) {
	repos, beats := repositorytest.Repositories(seedBeats()...)
	up := &fakeUploader{}
	ac := NewAdminController(beatadmin.NewService(repos, up))

	app := newApp()
	app.Get("/api/admin/beats", ac.HandleBeats)
	app.Post("/api/admin/beats", ac.HandleCreateBeat)
	app.Put("/api/admin/beats/:id", ac.HandleUpdateBeat)
	app.Delete("/api/admin/beats/:id", ac.HandleDeleteBeat)
	app.Patch("/api/admin/beats/:id/toggle-active", ac.HandleToggleActive)
	app.Get("/api/admin/licenses", ac.HandleLicenses)
	app.Get("/api/admin/orders/:id", ac.HandleOrder)
	return app, beats, up
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, name := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = io.WriteString(part, "fake media bytes")
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestAdminController_CreateBeat(t *testing.T) {
	app, _, up := adminApp()

	body, contentType := multipartBody(t,
		map[string]string{"title": "Night Drive", "price_cents": "2999", "license_type": "premium", "bpm": "140"},
		map[string]string{"audio": "night.mp3", "preview": "cover.png"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/beats", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, "Night Drive", data["title"])
	assert.Equal(t, "premium", data["license_type"])
	assert.Equal(t, float64(140), data["bpm"])
	require.Len(t, up.calls, 2)
	assert.Equal(t, "night.mp3", up.calls[0].FileName)
}

func TestAdminController_CreateBeatValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
		want   string
	}{
		{name: "title first", fields: map[string]string{"price_cents": "abc"}, want: "title"},
		{name: "bad price", fields: map[string]string{"title": "X", "price_cents": "abc"}, files: map[string]string{"audio": "a.mp3"}},
		{name: "audio required", fields: map[string]string{"title": "X", "price_cents": "100"}, want: "Audio file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, beats, up := adminApp()
			body, contentType := multipartBody(t, tt.fields, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/admin/beats", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			detail, _ := decode(t, resp)["detail"].(string)
			assert.Contains(t, strings.ToLower(detail), strings.ToLower(tt.want))
			assert.Empty(t, up.calls)
			assert.Zero(t, beats.Calls)
		})
	}
}

func TestAdminController_UpdateWithJSONKeepsMedia(t *testing.T) {
	app, beats, up := adminApp()

	req := httptest.NewRequest(http.MethodPut, "/api/admin/beats/live", strings.NewReader(`{"title":"Renamed","price_cents":3999}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	stored, _ := beats.Get("live")
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, "https://cdn.example.com/a", stored.AudioURL)
	assert.Empty(t, up.calls)
}

func TestAdminController_MultipartUpdateClearsEmptyFields(t *testing.T) {
	app, beats, _ := adminApp()
	seeded, _ := beats.Get("live")
	bpm, genre := 92, "lofi"
	seeded.BPM, seeded.Genre = &bpm, &genre
	require.NoError(t, beats.Update(context.Background(), &seeded))

	body, contentType := multipartBody(t, map[string]string{"title": "Live", "price_cents": "2999", "bpm": ""}, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/beats/live", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	stored, _ := beats.Get("live")
	assert.Nil(t, stored.BPM)
	require.NotNil(t, stored.Genre)
	assert.Equal(t, "lofi", *stored.Genre)
}

func TestAdminController_Toggle(t *testing.T) {
	app, beats, _ := adminApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/admin/beats/live/toggle-active?is_active=false", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	stored, _ := beats.Get("live")
	assert.False(t, stored.IsActive)

	resp, err = app.Test(httptest.NewRequest(http.MethodPatch, "/api/admin/beats/live/toggle-active?is_active=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPatch, "/api/admin/beats/ghost/toggle-active?is_active=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminController_DeleteAndReadViews(t *testing.T) {
	app, beats, _ := adminApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/admin/beats/hidden", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	_, ok := beats.Get("hidden")
	assert.False(t, ok)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/licenses?license_type=gold", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/orders/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWebhookController(t *testing.T) {
	const secret = "whsec_test"
	repos, _ := repositorytest.Repositories(seedBeats()...)
	receiver := stripehook.NewReceiver(stripehook.Config{WebhookSecret: secret, Tolerance: stripehook.DefaultTolerance},
		repos, &fakeUploader{}, licensedoc.Defaults{ProducerName: "5D"})
	wc := NewWebhookController(receiver)
	app := newApp()
	app.Post("/webhooks/stripe", wc.HandleStripe)

	payload := []byte(`{"id":"evt_1","type":"customer.created","data":{"object":{}}}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripehook.SignatureHeader(payload, secret, time.Now()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ignored", decode(t, resp)["outcome"])

	req = httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripehook.SignatureHeader(payload, "wrong", time.Now()))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLeadsController(t *testing.T) {
	fwd := leads.NewForwarder(leads.Config{})
	lc := NewLeadsController(fwd)
	app := newApp()
	app.Post("/api/leads", lc.HandleSubmit)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "accepted", body: `{"firstName":"Ada","lastName":"Artist","email":"ada@example.com"}`, wantStatus: fiber.StatusAccepted},
		{name: "invalid email", body: `{"firstName":"Ada","lastName":"Artist","email":"nope"}`, wantStatus: fiber.StatusBadRequest},
		{name: "malformed json", body: `{`, wantStatus: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
	fwd.Wait()
}

func TestCheckoutController(t *testing.T) {
	beats := repositorytest.NewBeats(seedBeats()...)
	svc := checkout.NewService([]checkout.Tier{
		{LicenseType: models.LicenseBasic, Name: "Basic Lease", PaymentLink: "https://buy.example.com/basic"},
	}, catalog.NewService(beats))
	cc := NewCheckoutController(svc)
	app := newApp()
	app.Get("/api/checkout/tiers", cc.HandleTiers)
	app.Get("/api/checkout/:tier", cc.HandleRedirect)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/checkout/basic?beat_id=live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://buy.example.com/basic?client_reference_id=live", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/checkout/basic?beat_id=hidden", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/checkout/tiers", nil))
	require.NoError(t, err)
	assert.Len(t, decode(t, resp)["data"], 1)
}

func TestHealthController(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
	}{
		{name: "all up", checks: map[string]HealthCheck{"database": up, "cache": up}, wantStatus: 200},
		{name: "cache down", checks: map[string]HealthCheck{"database": up, "cache": down}, wantStatus: 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/healthz", NewHealthController(tt.checks).HandleHealth)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
