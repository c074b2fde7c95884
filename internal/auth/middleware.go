package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/g-mayer/user-service/pkg/util"
)

const claimsKey = "auth_claims"

// AuthMiddleware gates every protected route on token verification. It is
// handler-agnostic: on success it stores the claims in the request locals and
// forwards to whatever handler comes next in the chain; on failure the chain
// terminates with 401 and the wrapped handler never runs.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	claims, err := m.tokens.VerifyHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return apperrors.NewUnauthorized(unauthorizedCode(err), err.Error())
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the claims injected by Handle.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}

func unauthorizedCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingAuthorizationHeader):
		return apperrors.CodeMissingAuthHeader
	case errors.Is(err, ErrMalformedAuthorizationHeader):
		return apperrors.CodeMalformedAuthHeader
	default:
		return apperrors.CodeInvalidToken
	}
}
