package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/g-mayer/user-service/internal/domain"
	apperrors "github.com/g-mayer/user-service/pkg/util"
)

// Authorize succeeds iff the claims carry at least the minimum role. An
// insufficient role surfaces with the same 401 classification as an
// authentication failure; no separate 403 is used.
func Authorize(claims *Claims, minimum domain.Role) error {
	if claims == nil || !claims.Role.AtLeast(minimum) {
		return apperrors.NewUnauthorized(apperrors.CodeInsufficientRole, "missing or invalid authentication")
	}
	return nil
}

// RequireRole returns middleware enforcing a minimum role for a route group.
func RequireRole(minimum domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, _ := ClaimsFromContext(c)
		if err := Authorize(claims, minimum); err != nil {
			return err
		}
		return c.Next()
	}
}
