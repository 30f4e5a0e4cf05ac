package handler

import (
	"go-tenant-catalog/internal/middleware"
	"go-tenant-catalog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TenantHandler struct {
	tenantService service.TenantService
}

func NewTenantHandler(tenantService service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// POST /api/admin/tenants
func (h *TenantHandler) CreateTenant(c *fiber.Ctx) error {
	var req service.TenantRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c, err)
	}

	tenant, err := h.tenantService.CreateTenant(c.UserContext(), &req, actorID(middleware.CurrentUser(c)))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tenant)
}

// GetTenants lists tenants, filtered by ?search= over name, contact and location
// GET /api/admin/tenants
func (h *TenantHandler) GetTenants(c *fiber.Ctx) error {
	tenants, err := h.tenantService.ListTenants(c.UserContext(), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tenants)
}

// GET /api/admin/tenants/:id
func (h *TenantHandler) GetTenant(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	tenant, err := h.tenantService.GetTenant(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tenant)
}

// DeleteTenant removes the tenant with all of its users and products
// DELETE /api/admin/tenants/:id
func (h *TenantHandler) DeleteTenant(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	if err := h.tenantService.DeleteTenant(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
