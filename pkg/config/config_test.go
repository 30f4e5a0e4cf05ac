package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg := FromEnv("catalog")

	assert.Equal(t, "catalog", cfg.ServiceName)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 10, cfg.Login.MaxAttempts)
	assert.False(t, cfg.IsProduction())
	assert.Contains(t, cfg.DB.DSN(), "dbname=catalog")
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/catalog")

	cfg := FromEnv("catalog")

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 3, cfg.Login.MaxAttempts)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.Equal(t, "postgres://u:p@db:5432/catalog", cfg.DB.DSN())
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LOGIN_MAX_ATTEMPTS", "many")
	t.Setenv("LOGIN_WINDOW", "soon")

	cfg := FromEnv("catalog")

	assert.Equal(t, 10, cfg.Login.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Login.Window)
}
