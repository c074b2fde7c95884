package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/g-mayer/user-service/internal/api/dto"
	"github.com/g-mayer/user-service/internal/auth"
	"github.com/g-mayer/user-service/internal/service"
	apperrors "github.com/g-mayer/user-service/pkg/util"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login. On success the signed token travels back in
// the Authorization response header and the body carries the user record.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, _, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return apperrors.NewUnauthorized(apperrors.CodeUserNotFound, "user not found")
		case errors.Is(err, service.ErrPasswordMismatch):
			return apperrors.NewUnauthorized(apperrors.CodePasswordMismatch, "password verification failed")
		case errors.Is(err, auth.ErrClockUnavailable):
			return apperrors.NewDomainError(apperrors.CodeClockUnavailable, "internal server error", http.StatusInternalServerError, nil)
		default:
			return apperrors.NewLookupFailure(err)
		}
	}

	c.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return c.JSON(user)
}
