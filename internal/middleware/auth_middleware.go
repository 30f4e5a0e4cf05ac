package middleware

import (
	"errors"
	"strings"

	"go-tenant-catalog/internal/model"
	"go-tenant-catalog/internal/service"
	"go-tenant-catalog/pkg/jwt"
	"go-tenant-catalog/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const userKey = "user"

// RequireAuth validates the bearer token, loads the user it was issued for and
// stores it in the context for downstream handlers.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Authentication credentials were not provided."})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Invalid authorization header. Use: Bearer <token>"})
		}

		user, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			return unauthorized(c, err)
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// RequireSuperuser rejects authenticated users that are not superusers.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsSuperuser {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"detail": "You do not have permission to perform this action.",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(userKey).(*model.User)
	return user
}

func unauthorized(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrWrongType), errors.Is(err, jwt.ErrMissingToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Given token not valid for any token type"})
	case errors.Is(err, service.ErrSessionRevoked):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Session has been revoked, please log in again."})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "User not found or inactive."})
	default:
		logger.FromCtx(c).Error("Authentication failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "Internal server error."})
	}
}
