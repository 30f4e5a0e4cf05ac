package service

import (
	"context"
	"errors"
	"fmt"

	"go-tenant-catalog/internal/model"
	"go-tenant-catalog/internal/repository"
	"go-tenant-catalog/pkg/metrics"
	"go-tenant-catalog/pkg/validator"

	"github.com/google/uuid"
)

type TenantService interface {
	CreateTenant(ctx context.Context, req *TenantRequest, creatorID string) (*model.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	ListTenants(ctx context.Context, search string) ([]model.Tenant, error)
	// DeleteTenant removes the tenant together with its users and products.
	DeleteTenant(ctx context.Context, id uuid.UUID) error
}

type TenantRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Address  *string `json:"address"`
	Contact  *string `json:"contact" validate:"omitnil,max=255"`
	Location *string `json:"location" validate:"omitnil,max=255"`
}

type tenantService struct {
	tenantRepo repository.TenantRepository
}

func NewTenantService(tenantRepo repository.TenantRepository) TenantService {
	return &tenantService{tenantRepo: tenantRepo}
}

func (s *tenantService) CreateTenant(ctx context.Context, req *TenantRequest, creatorID string) (*model.Tenant, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	tenant := &model.Tenant{
		Name:     req.Name,
		Address:  req.Address,
		Contact:  req.Contact,
		Location: req.Location,
	}
	tenant.CreatedBy = creatorID
	tenant.UpdatedBy = creatorID

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, s.translate(err, tenant.Name)
	}
	return tenant, nil
}

func (s *tenantService) GetTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "")
	}
	return tenant, nil
}

func (s *tenantService) ListTenants(ctx context.Context, search string) ([]model.Tenant, error) {
	return s.tenantRepo.FindAll(ctx, search)
}

func (s *tenantService) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	if err := s.tenantRepo.Delete(ctx, id); err != nil {
		return s.translate(err, "")
	}
	return nil
}

func (s *tenantService) translate(err error, name string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		metrics.ObserveDuplicateName(EntityTenant)
		return &DuplicateNameError{Entity: EntityTenant, Field: "name", Name: name}
	default:
		return fmt.Errorf("tenant: %w", err)
	}
}
