package controllers

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/beatadmin"
	"github.com/fivedlabs/beatstore/internal/pkg/usercontext"
)

// AdminController exposes the back office. All routes sit behind RequireAdmin.
type AdminController struct {
	admin *beatadmin.Service
}

func NewAdminController(svc *beatadmin.Service) *AdminController {
	return &AdminController{admin: svc}
}

// HandleMe returns the verified admin identity.
func (ac *AdminController) HandleMe(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, usercontext.GetUserContext(c))
}

// ============================================================================
// BEATS
// ============================================================================

func (ac *AdminController) HandleBeats(c *fiber.Ctx) error {
	beats, err := ac.admin.AllBeats(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, beats)
}

func (ac *AdminController) HandleBeat(c *fiber.Ctx) error {
	beat, err := ac.admin.Beat(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, beat)
}

// HandleCreateBeat accepts multipart form fields plus the audio and preview files.
func (ac *AdminController) HandleCreateBeat(c *fiber.Ctx) error {
	return ac.submit(c, "", fiber.StatusCreated)
}

// HandleUpdateBeat works like create; attached files replace the stored ones.
func (ac *AdminController) HandleUpdateBeat(c *fiber.Ctx) error {
	return ac.submit(c, c.Params("id"), fiber.StatusOK)
}

func (ac *AdminController) submit(c *fiber.Ctx, beatID string, status int) error {
	sub, err := readSubmission(c)
	if err != nil {
		return err
	}
	sub.BeatID = beatID

	res, err := ac.admin.Submit(c.UserContext(), sub)
	if err != nil {
		if res != nil {
			log.Warnf("[BeatAdmin] submission ended in %s: %v", res.Final(), err)
		}
		return err
	}
	return respond(c, status, res.Beat)
}

func (ac *AdminController) HandleToggleActive(c *fiber.Ctx) error {
	active, err := strconv.ParseBool(c.Query("is_active"))
	if err != nil {
		return apperror.Validation("is_active", "is_active must be true or false")
	}
	beat, err := ac.admin.Toggle(c.UserContext(), c.Params("id"), active)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, beat)
}

func (ac *AdminController) HandleDeleteBeat(c *fiber.Ctx) error {
	if err := ac.admin.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================================
// ORDERS, LICENSES, WEBHOOK EVENTS
// ============================================================================

func (ac *AdminController) HandleOrders(c *fiber.Ctx) error {
	orders, err := ac.admin.Orders(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, orders)
}

func (ac *AdminController) HandleOrder(c *fiber.Ctx) error {
	order, err := ac.admin.Order(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order)
}

func (ac *AdminController) HandleLicenses(c *fiber.Ctx) error {
	licenses, err := ac.admin.Licenses(c.UserContext(), c.Query("license_type"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, licenses)
}

func (ac *AdminController) HandleWebhookEvents(c *fiber.Ctx) error {
	events, err := ac.admin.WebhookEvents(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, events)
}

func (ac *AdminController) HandleWebhookEvent(c *fiber.Ctx) error {
	event, err := ac.admin.WebhookEvent(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, event)
}

// ============================================================================
// FORM PARSING
// ============================================================================

// readSubmission maps a multipart or JSON request onto a submission. Values
// that do not parse are passed on as out-of-range so that the form validator
// reports them in field order.
func readSubmission(c *fiber.Ctx) (beatadmin.Submission, error) {
	var sub beatadmin.Submission

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := c.BodyParser(&sub.Fields); err != nil {
			return sub, apperror.Validation("", "invalid JSON body")
		}
		return sub, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return sub, apperror.Validation("", "expected multipart/form-data")
	}

	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	// A field sent empty clears the stored value; an absent one keeps it.
	optional := func(key string) *string {
		if _, ok := form.Value[key]; !ok {
			return nil
		}
		v := value(key)
		return &v
	}

	sub.Fields.Title = value("title")
	sub.Fields.LicenseType = value("license_type")
	sub.Fields.Key = optional("key")
	sub.Fields.Genre = optional("genre")
	sub.Fields.ProducerName = optional("producer_name")
	sub.Fields.LicensorLegalName = optional("licensor_legal_name")

	if price, err := strconv.ParseInt(value("price_cents"), 10, 64); err == nil {
		sub.Fields.PriceCents = price
	}
	if raw := optional("bpm"); raw != nil {
		bpm := 0
		if *raw != "" {
			if bpm, err = strconv.Atoi(*raw); err != nil {
				bpm = -1
			}
		}
		sub.Fields.BPM = &bpm
	}
	if raw := value("is_active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			sub.Fields.IsActive = &active
		}
	}

	if sub.Audio, err = readFile(form, "audio"); err != nil {
		return sub, err
	}
	if sub.Preview, err = readFile(form, "preview"); err != nil {
		return sub, err
	}
	return sub, nil
}

func readFile(form *multipart.Form, key string) (*beatadmin.File, error) {
	headers := form.File[key]
	if len(headers) == 0 || headers[0].Size == 0 {
		return nil, nil
	}
	fh := headers[0]

	f, err := fh.Open()
	if err != nil {
		return nil, apperror.InvalidFile("could not read " + key + " file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperror.InvalidFile("could not read " + key + " file")
	}
	return &beatadmin.File{
		Data:     data,
		MimeType: fh.Header.Get(fiber.HeaderContentType),
		FileName: fh.Filename,
	}, nil
}
