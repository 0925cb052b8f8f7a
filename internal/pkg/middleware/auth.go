package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fivedlabs/beatstore/internal/pkg/adminauth"
	icuser "github.com/fivedlabs/beatstore/internal/pkg/usercontext"
)

// Authorizer checks a bearer token against the admin allowlist.
type Authorizer interface {
	Authorize(token string) (adminauth.Identity, error)
}

// RequireAdmin re-verifies the caller on every request. Errors are rendered by
// the app's error handler (401 for bad tokens, 403 for non-admins).
func RequireAdmin(auth Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.Authorize(bearerToken(c))
		if err != nil {
			log.Warnf("[Auth] admin request %s %s rejected: %v", c.Method(), c.Path(), err)
			return err
		}
		icuser.Set(c, icuser.UserContext{
			UserID:     id.UserID,
			Email:      id.Email,
			IsLoggedIn: true,
			IsAdmin:    true,
		})
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
