package handler

import (
	"go-tenant-catalog/internal/middleware"
	"go-tenant-catalog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles user creation
// POST /api/admin/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c, err)
	}

	user, err := h.userService.CreateUser(c.UserContext(), &req, actorID(middleware.CurrentUser(c)))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user.ToResponse())
}

// UpdateUser applies a partial update
// PUT|PATCH /api/admin/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	var req service.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c, err)
	}

	user, err := h.userService.UpdateUser(c.UserContext(), id, &req, actorID(middleware.CurrentUser(c)))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user.ToResponse())
}

// DeleteUser handles user deletion
// DELETE /api/admin/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	if err := h.userService.DeleteUser(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUsers lists users, filtered by ?search= over username, email and tenant name
// GET /api/admin/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext(), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(users)
}

// GET /api/admin/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	user, err := h.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}
