package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/leads"
)

type LeadsController struct {
	forwarder *leads.Forwarder
}

func NewLeadsController(f *leads.Forwarder) *LeadsController {
	return &LeadsController{forwarder: f}
}

// HandleSubmit accepts a beat pack sign-up. Delivery happens after the response.
func (lc *LeadsController) HandleSubmit(c *fiber.Ctx) error {
	var form leads.Form
	if err := c.BodyParser(&form); err != nil {
		return apperror.Validation("", "invalid request body")
	}

	_, err := lc.forwarder.Submit(form, leads.Meta{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusAccepted, fiber.Map{
		"message": "Thanks! Your free beat pack is on its way.",
	})
}
