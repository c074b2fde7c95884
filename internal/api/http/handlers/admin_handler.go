package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/g-mayer/user-service/internal/config"
	"github.com/g-mayer/user-service/internal/service"
	apperrors "github.com/g-mayer/user-service/pkg/util"
)

// AdminHandler exposes development-only operational endpoints. These are
// guarded by the environment check, not by the token system.
type AdminHandler struct {
	users *service.UserService
	app   config.AppConfig
}

// NewAdminHandler constructs handler.
func NewAdminHandler(userService *service.UserService, app config.AppConfig) *AdminHandler {
	return &AdminHandler{users: userService, app: app}
}

// Seed handles GET /admin/seed.
func (h *AdminHandler) Seed(c *fiber.Ctx) error {
	if !h.app.IsDevelopment() {
		return apperrors.NewForbidden("access denied in production mode")
	}

	if _, err := h.users.Seed(c.UserContext()); err != nil {
		return err
	}
	return c.SendString("Successfully added data to database. Try logging in with email: admin@admin.com, password: admin")
}
