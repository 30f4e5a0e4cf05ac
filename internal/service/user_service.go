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

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	ResetPassword(ctx context.Context, username, newPassword string) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	GetAllUsers(ctx context.Context, search string) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Username    string     `json:"username" validate:"required,max=150"`
	Password    string     `json:"password" validate:"required,min=8"`
	Email       string     `json:"email" validate:"omitempty,email,max=254"`
	TenantID    *uuid.UUID `json:"tenant_id"`
	IsSuperuser bool       `json:"is_superuser"`
	IsStaff     bool       `json:"is_staff"`
}

// UpdateUserRequest changes only the fields that are present. The tenant of a
// user is fixed at creation.
type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitnil,email,max=254"`
	Password    *string `json:"password" validate:"omitnil,min=8"`
	IsSuperuser *bool   `json:"is_superuser"`
	IsStaff     *bool   `json:"is_staff"`
	IsActive    *bool   `json:"is_active"`
}

type userService struct {
	userRepo   repository.UserRepository
	tenantRepo repository.TenantRepository
}

func NewUserService(userRepo repository.UserRepository, tenantRepo repository.TenantRepository) UserService {
	return &userService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
	}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error) {
	// 1. Validate request
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	// 2. Resolve tenant
	var tenant *model.Tenant
	var tenantID *uuid.UUID
	if req.TenantID != nil && *req.TenantID != uuid.Nil {
		t, err := s.lookupTenant(ctx, *req.TenantID)
		if err != nil {
			return nil, err
		}
		tenant = t
		tenantID = &t.ID
	}

	// 3. Build user. Tenancy is checked by the model when it is written.
	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		TenantID:     tenantID,
		IsSuperuser:  req.IsSuperuser,
		IsStaff:      req.IsStaff,
		IsActive:     true,
		TokenVersion: uuid.NewString(),
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	// 4. Save to database
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, s.translate(err, user.Username)
	}
	user.Tenant = tenant
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	// 1. Validate request
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	// 2. Find existing user
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, s.translate(err, "")
	}

	// 3. Apply changes
	revoke := false
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.IsSuperuser != nil {
		revoke = revoke || user.IsSuperuser != *req.IsSuperuser
		user.IsSuperuser = *req.IsSuperuser
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}
	if req.IsActive != nil {
		revoke = revoke || !*req.IsActive
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
		revoke = true
	}
	// Tokens carry the superuser claim, so outstanding ones are revoked
	if revoke {
		user.TokenVersion = uuid.NewString()
	}
	user.UpdatedBy = updaterID

	// 4. Save to database
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, s.translate(err, user.Username)
	}

	// 5. Reload and return
	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 8 {
		return validator.NewValidationError("password", "Ensure this field has at least 8 characters.")
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return s.translate(err, "")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash password")
	}
	user.TokenVersion = uuid.NewString()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return s.translate(err, user.Username)
	}
	return nil
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return s.translate(err, "")
	}
	return nil
}

func (s *userService) GetAllUsers(ctx context.Context, search string) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx, search)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "")
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) lookupTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validator.NewValidationError("tenant_id", fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", id))
		}
		return nil, err
	}
	return tenant, nil
}

func (s *userService) translate(err error, username string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		metrics.ObserveDuplicateName(EntityUser)
		return &DuplicateNameError{Entity: EntityUser, Field: "username", Name: username}
	case errors.Is(err, model.ErrTenantRequired):
		return model.ErrTenantRequired
	case errors.Is(err, model.ErrTenantForbidden):
		return model.ErrTenantForbidden
	default:
		return fmt.Errorf("user: %w", err)
	}
}
