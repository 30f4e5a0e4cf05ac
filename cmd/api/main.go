package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-tenant-catalog/internal/handler"
	"go-tenant-catalog/internal/repository"
	"go-tenant-catalog/internal/security/ratelimit"
	"go-tenant-catalog/internal/service"
	"go-tenant-catalog/internal/ws"
	"go-tenant-catalog/pkg/config"
	"go-tenant-catalog/pkg/database"
	"go-tenant-catalog/pkg/jwt"
	"go-tenant-catalog/pkg/logger"

	"go.uber.org/zap"
)

const serviceName = "tenant-catalog"

func main() {
	// 1. Load Env
	cfg := config.Load(serviceName)

	if err := logger.InitLogger(cfg.Log.Level, cfg.Server.Env, cfg.ServiceName); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 3. Dependency Injection (Wiring Layers)
	tenantRepo := repository.NewTenantRepo(db)
	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)

	userService := service.NewUserService(userRepo, tenantRepo)
	seedAdmin(ctx, cfg.Admin, userService, log)

	limiter, closeLimiter := newLimiter(ctx, cfg.Login, log)
	defer closeLimiter()

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	app := handler.NewApp("Tenant Catalog v1.0", handler.Services{
		DB:      db,
		Auth:    service.NewAuthService(userRepo, tokens, limiter, log),
		Catalog: service.NewCatalogService(productRepo, wsHub, log),
		Tenants: service.NewTenantService(tenantRepo),
		Users:   userService,
		Hub:     wsHub,
	})

	// 5. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Panic("Server stopped", zap.Error(err))
		}
	}()
	log.Info("Server started", zap.String("port", cfg.Server.Port))

	<-ctx.Done()

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// newLimiter shares login attempts through redis when REDIS_URL is set and
// keeps them in process otherwise.
func newLimiter(ctx context.Context, cfg config.LoginConfig, log *zap.Logger) (ratelimit.Limiter, func()) {
	if cfg.RedisURL != "" {
		limiter, err := ratelimit.NewRedisLimiter(ctx, cfg.RedisURL, cfg.MaxAttempts, cfg.Window)
		if err == nil {
			log.Info("Login throttle backed by redis")
			return limiter, func() { _ = limiter.Close() }
		}
		log.Warn("Redis unavailable, falling back to in-memory login throttle", zap.Error(err))
	}
	limiter := ratelimit.NewMemoryLimiter(cfg.MaxAttempts, cfg.Window)
	return limiter, limiter.Stop
}

// seedAdmin creates the configured superuser if it does not exist yet.
func seedAdmin(ctx context.Context, cfg config.AdminConfig, users service.UserService, log *zap.Logger) {
	if cfg.Username == "" || cfg.Password == "" {
		return
	}
	_, err := users.CreateUser(ctx, &service.CreateUserRequest{
		Username:    cfg.Username,
		Password:    cfg.Password,
		IsSuperuser: true,
		IsStaff:     true,
	}, "system")
	switch {
	case err == nil:
		log.Info("Admin user created", zap.String("username", cfg.Username))
	case errors.Is(err, service.ErrDuplicateName):
		log.Debug("Admin user already exists", zap.String("username", cfg.Username))
	default:
		log.Warn("Failed to create admin user", zap.Error(err))
	}
}
