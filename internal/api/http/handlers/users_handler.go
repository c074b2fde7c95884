package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/g-mayer/user-service/internal/api/dto"
	"github.com/g-mayer/user-service/internal/auth"
	"github.com/g-mayer/user-service/internal/domain"
	"github.com/g-mayer/user-service/internal/service"
	apperrors "github.com/g-mayer/user-service/pkg/util"
)

// UsersHandler exposes the protected user CRUD surface. Every handler checks
// the injected claims against the minimum role before touching storage.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

func requireUser(c *fiber.Ctx) error {
	claims, _ := auth.ClaimsFromContext(c)
	return auth.Authorize(claims, domain.RoleUser)
}

// Find handles GET /api/user, looking a user up by id, email, or username.
func (h *UsersHandler) Find(c *fiber.Ctx) error {
	if err := requireUser(c); err != nil {
		return err
	}

	ctx := c.UserContext()
	if rawID := c.Query("id"); rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return apperrors.NewValidationError("invalid user id", nil)
		}
		user, err := h.users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
	if email := c.Query("email"); email != "" {
		user, err := h.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
	if username := c.Query("username"); username != "" {
		user, err := h.users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
	return apperrors.NewValidationError("missing query parameters", nil)
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	if err := requireUser(c); err != nil {
		return err
	}

	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// Create handles POST /api/user.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	if err := requireUser(c); err != nil {
		return err
	}

	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("username, email, password required", nil)
	}
	role, err := domain.RoleFromInt(req.Role)
	if err != nil {
		return apperrors.NewValidationError("invalid role", nil)
	}

	user, err := h.users.Create(c.UserContext(), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Timezone: req.Timezone,
		Role:     role,
	})
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Update handles PUT /api/user/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	if err := requireUser(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.NewValidationError("invalid user id", nil)
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Timezone: req.Timezone,
	}
	if req.Role != nil {
		role, err := domain.RoleFromInt(*req.Role)
		if err != nil {
			return apperrors.NewValidationError("invalid role", nil)
		}
		input.Role = &role
	}

	user, err := h.users.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Delete handles DELETE /api/user/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := requireUser(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.NewValidationError("invalid user id", nil)
	}
	if err := h.users.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}
