package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fivedlabs/beatstore/internal/pkg/constants"
	"github.com/fivedlabs/beatstore/internal/pkg/middleware"
)

// AdminRouter installs the back office API. Every request is re-authorized.
type AdminRouter struct {
	h Handlers
}

func NewAdminRouter(h Handlers) *AdminRouter {
	return &AdminRouter{h: h}
}

func (r AdminRouter) InstallRouter(app *fiber.App) {
	ac := r.h.Admin
	adminGroup := app.Group(constants.AdminRoute, middleware.RequireAdmin(r.h.Authorizer))

	adminGroup.Get("/me", ac.HandleMe)

	// Beats
	adminGroup.Get("/beats", ac.HandleBeats)
	adminGroup.Post("/beats", ac.HandleCreateBeat)
	adminGroup.Get("/beats/:id", ac.HandleBeat)
	adminGroup.Put("/beats/:id", ac.HandleUpdateBeat)
	adminGroup.Delete("/beats/:id", ac.HandleDeleteBeat)
	adminGroup.Patch("/beats/:id/toggle-active", ac.HandleToggleActive)

	// Sales
	adminGroup.Get("/orders", ac.HandleOrders)
	adminGroup.Get("/orders/:id", ac.HandleOrder)
	adminGroup.Get("/licenses", ac.HandleLicenses)

	// Webhook events
	adminGroup.Get("/webhooks", ac.HandleWebhookEvents)
	adminGroup.Get("/webhooks/:id", ac.HandleWebhookEvent)
}
