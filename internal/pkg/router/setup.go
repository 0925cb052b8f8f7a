package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fivedlabs/beatstore/app/controllers"
	"github.com/fivedlabs/beatstore/internal/pkg/middleware"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Handlers carries everything the routers need. LimiterStorage nil means the
// in-memory limiter store.
type Handlers struct {
	Catalog  *controllers.CatalogController
	Admin    *controllers.AdminController
	Webhook  *controllers.WebhookController
	Leads    *controllers.LeadsController
	Checkout *controllers.CheckoutController
	Health   *controllers.HealthController

	Authorizer     middleware.Authorizer
	LimiterStorage fiber.Storage
}

func InstallRouter(app *fiber.App, h Handlers) {
	setup(app, NewApiRouter(h), NewAdminRouter(h), NewWebhookRouter(h))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
