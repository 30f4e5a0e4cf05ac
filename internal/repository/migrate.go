package repository

import (
	"go-tenant-catalog/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the catalog tables. Tenants go first because
// users and products reference them.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Tenant{}, &model.User{}, &model.Product{})
}
