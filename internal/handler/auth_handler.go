package handler

import (
	"go-tenant-catalog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for an access/refresh token pair.
// POST /api/login/
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c, err)
	}

	missing := fiber.Map{}
	if req.Username == "" {
		missing["username"] = []string{"This field is required."}
	}
	if req.Password == "" {
		missing["password"] = []string{"This field is required."}
	}
	if len(missing) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(missing)
	}

	tokens, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tokens)
}

// Refresh issues a new access token.
// POST /api/token/refresh/
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c, err)
	}
	if req.Refresh == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"refresh": []string{"This field is required."}})
	}

	token, err := h.authService.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(token)
}
