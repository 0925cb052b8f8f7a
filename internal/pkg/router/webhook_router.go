package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fivedlabs/beatstore/internal/pkg/constants"
)

type WebhookRouter struct {
	h Handlers
}

func NewWebhookRouter(h Handlers) *WebhookRouter {
	return &WebhookRouter{h: h}
}

func (r WebhookRouter) InstallRouter(app *fiber.App) {
	app.Post(constants.WebhooksRoute+"/stripe", r.h.Webhook.HandleStripe)
}
