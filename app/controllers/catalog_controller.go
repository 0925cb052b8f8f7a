package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/catalog"
)

const catalogFailure = "failed to load beats"

// CatalogController serves the public beat store.
type CatalogController struct {
	catalog *catalog.Service
}

func NewCatalogController(svc *catalog.Service) *CatalogController {
	return &CatalogController{catalog: svc}
}

// HandleList returns all active beats, newest first.
func (cc *CatalogController) HandleList(c *fiber.Ctx) error {
	beats, err := cc.catalog.ListActive(c.UserContext())
	if err != nil {
		return publicError(c, err)
	}
	return respond(c, fiber.StatusOK, beats)
}

// HandleFeatured returns the newest active beats for the carousel.
func (cc *CatalogController) HandleFeatured(c *fiber.Ctx) error {
	beats, err := cc.catalog.ListFeatured(c.UserContext(), c.QueryInt("limit", catalog.DefaultFeatured))
	if err != nil {
		return publicError(c, err)
	}
	return respond(c, fiber.StatusOK, beats)
}

// HandleGet returns one active beat.
func (cc *CatalogController) HandleGet(c *fiber.Ctx) error {
	beat, err := cc.catalog.GetActiveByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return publicError(c, err)
	}
	return respond(c, fiber.StatusOK, beat)
}

// publicError keeps store details out of public responses.
func publicError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	log.Errorf("[Catalog] %s: %v", c.Path(), err)
	return &apperror.Error{Kind: apperror.KindOf(err), Message: catalogFailure, Err: err}
}
