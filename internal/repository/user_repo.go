package repository

import (
	"context"
	"fmt"
	"time"

	"go-tenant-catalog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindAll(ctx context.Context, search string) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	RecordLogin(ctx context.Context, user *model.User, at time.Time, tokenVersion string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

// Create persists user. The model's BeforeSave hook rejects tenancy violations
// before the insert is issued.
func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Tenant").First(&user, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Tenant").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

func (r *userRepo) FindAll(ctx context.Context, search string) ([]model.User, error) {
	query := r.db.WithContext(ctx).Preload("Tenant").Order("users.username")
	if search != "" {
		p := likePattern(search)
		query = query.Joins("LEFT JOIN tenants ON tenants.id = users.tenant_id").
			Where("LOWER(users.username) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(tenants.name) LIKE ?", p, p, p)
	}

	var users []model.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Update saves every column of user. Like Create it runs BeforeSave, so moving a
// user between the tenant-bound and superuser states is checked here too.
func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
		}
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// RecordLogin stamps last_login and token_version, but only while the row still
// holds the credentials the caller authenticated against. A concurrent password
// reset, deactivation or revocation makes it return ErrConflict.
func (r *userRepo) RecordLogin(ctx context.Context, user *model.User, at time.Time, tokenVersion string) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND password = ? AND is_active = ? AND is_superuser = ? AND token_version = ?",
			user.ID, user.Password, true, user.IsSuperuser, user.TokenVersion).
		UpdateColumns(map[string]interface{}{
			"last_login":    at,
			"token_version": tokenVersion,
		})
	if result.Error != nil {
		return fmt.Errorf("recording login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	user.LastLogin = &at
	user.TokenVersion = tokenVersion
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
