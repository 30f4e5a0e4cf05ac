package repository

import (
	"context"
	"fmt"

	"go-tenant-catalog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository is tenant-scoped throughout: no method reads or writes a
// product without a tenant id in its WHERE clause.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAllByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error)
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*model.Product, error)
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id, tenantID uuid.UUID) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// Create inserts product. A (tenant_id, name) collision, including one from a
// concurrent insert, comes back as ErrDuplicate.
func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: product %q", ErrDuplicate, product.Name)
		}
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

func (r *productRepo) FindAllByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Preload("Tenant").
		Where("tenant_id = ?", tenantID).
		Order("created_at, id").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

func (r *productRepo) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Preload("Tenant").
		First(&product, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &product, nil
}

// ExistsByName reports whether another product of the tenant already uses name.
// Pass uuid.Nil as excludeID on create.
func (r *productRepo) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("tenant_id = ? AND name = ? AND id <> ?", tenantID, name, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking product name: %w", err)
	}
	return count > 0, nil
}

// Update writes the mutable columns of product, matching on both id and tenant.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND tenant_id = ?", product.ID, product.TenantID).
		Updates(map[string]interface{}{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"quantity":    product.Quantity,
			"updated_at":  product.UpdatedAt,
			"updated_by":  product.UpdatedBy,
		})
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return fmt.Errorf("%w: product %q", ErrDuplicate, product.Name)
		}
		return fmt.Errorf("updating product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ? AND tenant_id = ?", id, tenantID)
	if result.Error != nil {
		return fmt.Errorf("deleting product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
