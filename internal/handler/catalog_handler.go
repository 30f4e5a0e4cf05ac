package handler

import (
	"go-tenant-catalog/internal/middleware"
	"go-tenant-catalog/internal/model"
	"go-tenant-catalog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// scope derives the tenant boundary of the request once. Everything below the
// handler receives it explicitly.
func scope(c *fiber.Ctx) service.Scope {
	return service.ScopeFor(middleware.CurrentUser(c))
}

// GetProducts lists the caller's products.
// GET /api/products/
func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext(), scope(c))
	if err != nil {
		return writeError(c, err)
	}

	responses := make([]model.ProductResponse, len(products))
	for i := range products {
		responses[i] = products[i].ToResponse()
	}
	return c.JSON(responses)
}

// GET /api/products/:id/
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	product, err := h.service.GetProduct(c.UserContext(), scope(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product.ToResponse())
}

// CreateProduct assigns the product to the caller's tenant. A tenant named in
// the body is ignored.
// POST /api/products/
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c, err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), scope(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product.ToResponse())
}

// PUT /api/products/:id/
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	return h.update(c, false)
}

// PATCH /api/products/:id/
func (h *CatalogHandler) PatchProduct(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *CatalogHandler) update(c *fiber.Ctx, partial bool) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), scope(c), id, &req, partial)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product.ToResponse())
}

// DELETE /api/products/:id/
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	if err := h.service.DeleteProduct(c.UserContext(), scope(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
