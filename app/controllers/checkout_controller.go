package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fivedlabs/beatstore/internal/pkg/checkout"
)

type CheckoutController struct {
	checkout *checkout.Service
}

func NewCheckoutController(svc *checkout.Service) *CheckoutController {
	return &CheckoutController{checkout: svc}
}

func (cc *CheckoutController) HandleTiers(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, cc.checkout.Tiers())
}

// HandleRedirect sends the buyer to the tier's payment link.
func (cc *CheckoutController) HandleRedirect(c *fiber.Ctx) error {
	target, err := cc.checkout.RedirectURL(c.UserContext(), c.Params("tier"), c.Query("beat_id"))
	if err != nil {
		return err
	}
	return c.Redirect(target, fiber.StatusFound)
}
