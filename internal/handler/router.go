package handler

import (
	"go-tenant-catalog/internal/middleware"
	"go-tenant-catalog/internal/service"
	"go-tenant-catalog/internal/ws"
	"go-tenant-catalog/pkg/logger"
	"go-tenant-catalog/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Services bundles what the router needs to mount every endpoint.
type Services struct {
	DB      *gorm.DB
	Auth    service.AuthService
	Catalog service.CatalogService
	Tenants service.TenantService
	Users   service.UserService
	Hub     *ws.Hub
}

// NewApp builds the fiber application with middleware and routes.
func NewApp(appName string, s Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: appName,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())
	app.Use(logger.Middleware())
	app.Use(metrics.Middleware())

	SetupRoutes(app, s)
	return app
}

// SetupRoutes mounts every route. Trailing slashes are optional because fiber
// routing is not strict by default.
func SetupRoutes(app *fiber.App, s Services) {
	authHandler := NewAuthHandler(s.Auth)
	catalogHandler := NewCatalogHandler(s.Catalog)
	tenantHandler := NewTenantHandler(s.Tenants)
	userHandler := NewUserHandler(s.Users)
	healthHandler := NewHealthHandler(s.DB)

	app.Get("/health", healthHandler.Health)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// ============ PUBLIC ROUTES ============
	api.Post("/login", authHandler.Login)
	api.Post("/token/refresh", authHandler.Refresh)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(s.Auth))

	products := protected.Group("/products")
	products.Get("/", catalogHandler.GetProducts)
	products.Post("/", catalogHandler.CreateProduct)
	products.Get("/:id", catalogHandler.GetProduct)
	products.Put("/:id", catalogHandler.UpdateProduct)
	products.Patch("/:id", catalogHandler.PatchProduct)
	products.Delete("/:id", catalogHandler.DeleteProduct)

	admin := protected.Group("/admin", middleware.RequireSuperuser())

	admin.Get("/tenants", tenantHandler.GetTenants)
	admin.Post("/tenants", tenantHandler.CreateTenant)
	admin.Get("/tenants/:id", tenantHandler.GetTenant)
	admin.Delete("/tenants/:id", tenantHandler.DeleteTenant)

	admin.Get("/users", userHandler.GetUsers)
	admin.Post("/users", userHandler.CreateUser)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Put("/users/:id", userHandler.UpdateUser)
	admin.Patch("/users/:id", userHandler.UpdateUser)
	admin.Delete("/users/:id", userHandler.DeleteUser)

	// WebSocket Route
	if s.Hub != nil {
		wsHandler := NewWSHandler(s.Auth, s.Hub)
		app.Get("/ws", wsHandler.Upgrade, wsHandler.Serve())
	}
}
