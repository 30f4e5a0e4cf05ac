package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is an authenticated principal. Exactly one of TenantID and IsSuperuser is
// set: BeforeSave rejects anything else and the check constraint backs it up.
type User struct {
	BaseModel
	Username     string     `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"type:varchar(254)" json:"email"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	TenantID     *uuid.UUID `gorm:"type:uuid;index" json:"tenant_id"`
	Tenant       *Tenant    `gorm:"constraint:OnDelete:CASCADE" json:"tenant,omitempty"`
	IsSuperuser  bool       `gorm:"not null;check:chk_users_tenancy,(is_superuser AND tenant_id IS NULL) OR (NOT is_superuser AND tenant_id IS NOT NULL)" json:"is_superuser"`
	IsStaff      bool       `gorm:"not null" json:"is_staff"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	TokenVersion string     `gorm:"type:varchar(255);default:''" json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// BeforeSave runs on every create and save, so a user can never be persisted in
// a state that breaks the tenancy invariant.
func (u *User) BeforeSave(tx *gorm.DB) error {
	return u.ValidateTenancy()
}

// ValidateTenancy checks the tenant/superuser exclusivity.
func (u *User) ValidateTenancy() error {
	hasTenant := u.TenantID != nil && *u.TenantID != uuid.Nil
	if !u.IsSuperuser && !hasTenant {
		return ErrTenantRequired
	}
	if u.IsSuperuser && hasTenant {
		return ErrTenantForbidden
	}
	return nil
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func (u *User) String() string {
	if u.Tenant != nil {
		return u.Username + " (" + u.Tenant.Name + ")"
	}
	return u.Username + " (Superuser)"
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	TenantID    *uuid.UUID `json:"tenant_id"`
	Tenant      *string    `json:"tenant"`
	IsSuperuser bool       `json:"is_superuser"`
	IsStaff     bool       `json:"is_staff"`
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	Created     time.Time  `json:"created"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		TenantID:    u.TenantID,
		IsSuperuser: u.IsSuperuser,
		IsStaff:     u.IsStaff,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		Created:     u.CreatedAt,
	}
	if u.Tenant != nil {
		name := u.Tenant.Name
		resp.Tenant = &name
	}
	return resp
}
