package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-tenant-catalog/internal/model"
	"go-tenant-catalog/internal/repository"
	"go-tenant-catalog/pkg/metrics"
	"go-tenant-catalog/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the write view. There is no tenant field: the owning tenant
// always comes from the caller's Scope.
type ProductRequest struct {
	Name        *string          `json:"name" validate:"required,min=1,max=255"`
	Description NullableString   `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Quantity    *int64           `json:"quantity" validate:"required,gte=0,lte=2147483647"`
}

var maxPrice = decimal.New(1, 8) // numeric(10,2) leaves 8 integer digits

func (r *ProductRequest) presentFields() []string {
	var fields []string
	if r.Name != nil {
		fields = append(fields, "Name")
	}
	if r.Price != nil {
		fields = append(fields, "Price")
	}
	if r.Quantity != nil {
		fields = append(fields, "Quantity")
	}
	return fields
}

func (r *ProductRequest) validate(partial bool) error {
	var err error
	if partial {
		err = validator.ValidatePartial(r, r.presentFields()...)
	} else {
		err = validator.ValidateStruct(r)
	}

	verr := &validator.ValidationError{}
	if err != nil && !errors.As(err, &verr) {
		return err
	}
	if r.Price != nil {
		price := *r.Price
		if price.IsNegative() {
			verr.Add("price", "Ensure this value is greater than or equal to 0.")
		}
		if !price.Equal(price.Truncate(2)) {
			verr.Add("price", "Ensure that there are no more than 2 decimal places.")
		}
		if price.Abs().GreaterThanOrEqual(maxPrice) {
			verr.Add("price", "Ensure that there are no more than 8 digits before the decimal point.")
		}
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// EventPublisher fans catalog events out to listeners of one tenant.
type EventPublisher interface {
	PublishToTenant(tenantID uuid.UUID, message []byte)
}

type CatalogService interface {
	ListProducts(ctx context.Context, scope Scope) ([]model.Product, error)
	GetProduct(ctx context.Context, scope Scope, id uuid.UUID) (*model.Product, error)
	CreateProduct(ctx context.Context, scope Scope, req *ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, scope Scope, id uuid.UUID, req *ProductRequest, partial bool) (*model.Product, error)
	DeleteProduct(ctx context.Context, scope Scope, id uuid.UUID) error
}

type catalogService struct {
	productRepo repository.ProductRepository
	events      EventPublisher
	log         *zap.Logger
}

func NewCatalogService(productRepo repository.ProductRepository, events EventPublisher, log *zap.Logger) CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &catalogService{
		productRepo: productRepo,
		events:      events,
		log:         log,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, scope Scope) ([]model.Product, error) {
	if !scope.HasTenant() {
		return []model.Product{}, nil
	}
	products, err := s.productRepo.FindAllByTenant(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, scope Scope, id uuid.UUID) (*model.Product, error) {
	if !scope.HasTenant() {
		return nil, ErrNotFound
	}
	product, err := s.productRepo.FindByIDForTenant(ctx, id, scope.TenantID)
	if err != nil {
		return nil, s.translate(err, scope, "")
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, scope Scope, req *ProductRequest) (*model.Product, error) {
	if !scope.HasTenant() {
		metrics.ObserveProductOperation("create", "not_found")
		return nil, ErrNotFound
	}
	if err := req.validate(false); err != nil {
		metrics.ObserveProductOperation("create", "invalid")
		return nil, err
	}

	product := &model.Product{
		TenantID:    scope.TenantID,
		Name:        *req.Name,
		Description: req.Description.Value,
		Price:       *req.Price,
		Quantity:    *req.Quantity,
	}
	product.CreatedBy = scope.UserID.String()
	product.UpdatedBy = scope.UserID.String()

	if err := s.checkName(ctx, scope, product.Name, uuid.Nil); err != nil {
		metrics.ObserveProductOperation("create", "duplicate")
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		metrics.ObserveProductOperation("create", "error")
		return nil, s.translate(err, scope, product.Name)
	}
	product.Tenant = scopeTenant(scope)

	metrics.ObserveProductOperation("create", "ok")
	s.publish(scope, "product_created", product)
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, scope Scope, id uuid.UUID, req *ProductRequest, partial bool) (*model.Product, error) {
	if !scope.HasTenant() {
		metrics.ObserveProductOperation("update", "not_found")
		return nil, ErrNotFound
	}
	product, err := s.productRepo.FindByIDForTenant(ctx, id, scope.TenantID)
	if err != nil {
		metrics.ObserveProductOperation("update", "not_found")
		return nil, s.translate(err, scope, "")
	}
	if err := req.validate(partial); err != nil {
		metrics.ObserveProductOperation("update", "invalid")
		return nil, err
	}

	oldName := product.Name
	if req.Name != nil {
		product.Name = *req.Name
	}
	// absent fields keep their value on PUT as well as PATCH
	if req.Description.Set {
		product.Description = req.Description.Value
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	product.UpdatedAt = time.Now().UTC()
	product.UpdatedBy = scope.UserID.String()

	if product.Name != oldName {
		if err := s.checkName(ctx, scope, product.Name, product.ID); err != nil {
			metrics.ObserveProductOperation("update", "duplicate")
			return nil, err
		}
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		metrics.ObserveProductOperation("update", "error")
		return nil, s.translate(err, scope, product.Name)
	}

	metrics.ObserveProductOperation("update", "ok")
	s.publish(scope, "product_updated", product)
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, scope Scope, id uuid.UUID) error {
	if !scope.HasTenant() {
		metrics.ObserveProductOperation("delete", "not_found")
		return ErrNotFound
	}
	if err := s.productRepo.Delete(ctx, id, scope.TenantID); err != nil {
		metrics.ObserveProductOperation("delete", "not_found")
		return s.translate(err, scope, "")
	}

	metrics.ObserveProductOperation("delete", "ok")
	s.publish(scope, "product_deleted", &model.Product{BaseModel: model.BaseModel{ID: id}, Tenant: scopeTenant(scope)})
	return nil
}

// checkName looks for a collision up front so the caller gets a field error.
// The unique index still decides races between concurrent writers.
func (s *catalogService) checkName(ctx context.Context, scope Scope, name string, excludeID uuid.UUID) error {
	exists, err := s.productRepo.ExistsByName(ctx, scope.TenantID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		metrics.ObserveDuplicateName(EntityProduct)
		return s.duplicate(scope, name)
	}
	return nil
}

func (s *catalogService) translate(err error, scope Scope, name string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		metrics.ObserveDuplicateName(EntityProduct)
		s.log.Warn("Product name collision caught by unique index",
			zap.String("tenant_id", scope.TenantID.String()),
			zap.String("name", name))
		return s.duplicate(scope, name)
	default:
		return fmt.Errorf("catalog: %w", err)
	}
}

func (s *catalogService) duplicate(scope Scope, name string) error {
	return &DuplicateNameError{
		Entity: EntityProduct,
		Field:  "name",
		Name:   name,
		Tenant: scope.TenantName,
	}
}

func (s *catalogService) publish(scope Scope, action string, product *model.Product) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"type":    "product_event",
		"action":  action,
		"product": product.ToResponse(),
		"user":    map[string]interface{}{"id": scope.UserID},
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("Failed to encode product event", zap.Error(err))
		return
	}
	s.events.PublishToTenant(scope.TenantID, msg)
}

func scopeTenant(scope Scope) *model.Tenant {
	return &model.Tenant{BaseModel: model.BaseModel{ID: scope.TenantID}, Name: scope.TenantName}
}
