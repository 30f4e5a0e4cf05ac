package repository

import (
	"context"
	"fmt"

	"go-tenant-catalog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	FindByName(ctx context.Context, name string) (*model.Tenant, error)
	FindAll(ctx context.Context, search string) ([]model.Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type tenantRepo struct {
	db *gorm.DB
}

func NewTenantRepo(db *gorm.DB) TenantRepository {
	return &tenantRepo{db}
}

func (r *tenantRepo) Create(ctx context.Context, tenant *model.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: tenant %q", ErrDuplicate, tenant.Name)
		}
		return fmt.Errorf("creating tenant: %w", err)
	}
	return nil
}

func (r *tenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &tenant, nil
}

func (r *tenantRepo) FindByName(ctx context.Context, name string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "name = ?", name).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &tenant, nil
}

// FindAll lists tenants, optionally filtered by a case-insensitive search over
// name, contact and location.
func (r *tenantRepo) FindAll(ctx context.Context, search string) ([]model.Tenant, error) {
	query := r.db.WithContext(ctx).Order("name")
	if search != "" {
		p := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(contact) LIKE ? OR LOWER(location) LIKE ?", p, p, p)
	}

	var tenants []model.Tenant
	if err := query.Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	return tenants, nil
}

// Delete removes the tenant; users and products go with it through ON DELETE CASCADE.
func (r *tenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Tenant{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
