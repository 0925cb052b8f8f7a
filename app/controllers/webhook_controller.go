package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fivedlabs/beatstore/internal/pkg/stripehook"
)

// WebhookController receives payment provider callbacks.
type WebhookController struct {
	receiver *stripehook.Receiver
}

func NewWebhookController(r *stripehook.Receiver) *WebhookController {
	return &WebhookController{receiver: r}
}

// HandleStripe answers 400 only for unverifiable deliveries. Processing
// problems are recorded on the event and acknowledged so the provider does not retry.
func (wc *WebhookController) HandleStripe(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns
	payload := append([]byte(nil), c.Body()...)

	outcome, err := wc.receiver.Handle(c.UserContext(), payload, c.Get("Stripe-Signature"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true, "outcome": outcome})
}
