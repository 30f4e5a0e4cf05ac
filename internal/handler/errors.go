package handler

import (
	"errors"

	"go-tenant-catalog/internal/model"
	"go-tenant-catalog/internal/service"
	"go-tenant-catalog/pkg/jwt"
	"go-tenant-catalog/pkg/logger"
	"go-tenant-catalog/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// writeError maps service errors to the response shape clients expect:
// field errors as {"field": ["message"]}, everything else as {"detail": "message"}.
func writeError(c *fiber.Ctx, err error) error {
	var verr *validator.ValidationError
	var dup *service.DuplicateNameError

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(verr.Fields)
	case errors.As(err, &dup):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{dup.Field: []string{dup.Error()}})
	case errors.Is(err, model.ErrTenantRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"tenant": []string{model.ErrTenantRequired.Error()}})
	case errors.Is(err, model.ErrTenantForbidden):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"tenant": []string{model.ErrTenantForbidden.Error()}})
	case errors.Is(err, service.ErrNotFound):
		return notFound(c)
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "No active account found with the given credentials"})
	case errors.Is(err, service.ErrSessionRevoked),
		errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrWrongType), errors.Is(err, jwt.ErrMissingToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Token is invalid or expired"})
	case errors.Is(err, service.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"detail": "Too many login attempts. Try again later."})
	default:
		logger.FromCtx(c).Error("Request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "Internal server error."})
	}
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
}

func badJSON(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "JSON parse error - " + err.Error()})
}

// parseID reads the :id route param. A malformed id can never match a row, so
// callers answer it with 404 like any other unknown id.
func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func actorID(user *model.User) string {
	if user == nil {
		return "system"
	}
	return user.ID.String()
}
