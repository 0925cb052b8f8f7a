package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/fivedlabs/beatstore/internal/pkg/constants"
)

// ApiRouter installs the public storefront API.
type ApiRouter struct {
	h Handlers
}

func NewApiRouter(h Handlers) *ApiRouter {
	return &ApiRouter{h: h}
}

func (r ApiRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthRoute, r.h.Health.HandleHealth)

	api := app.Group(constants.APIRoute)

	api.Get("/beats", r.h.Catalog.HandleList)
	api.Get("/beats/featured", r.h.Catalog.HandleFeatured)
	api.Get("/beats/:id", r.h.Catalog.HandleGet)

	api.Get("/checkout/tiers", r.h.Checkout.HandleTiers)
	api.Get("/checkout/:tier", r.h.Checkout.HandleRedirect)

	api.Post("/leads", r.writeLimiter(), r.h.Leads.HandleSubmit)
}

// writeLimiter throttles public form posts per client IP.
func (r ApiRouter) writeLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		Storage:    r.h.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"detail": "too many requests, please try again later"})
		},
	})
}
