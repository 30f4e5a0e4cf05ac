package service

import (
	"go-tenant-catalog/internal/model"

	"github.com/google/uuid"
)

// Scope is the tenant boundary every catalog call runs inside. It is derived once
// from the authenticated user at the API edge and passed explicitly from there on.
type Scope struct {
	TenantID   uuid.UUID
	TenantName string
	UserID     uuid.UUID
}

// ScopeFor derives the scope of user. Identities without a tenant, superusers
// included, get a scope with no tenant and therefore see nothing.
func ScopeFor(user *model.User) Scope {
	if user == nil {
		return Scope{}
	}
	scope := Scope{UserID: user.ID}
	if user.IsSuperuser || user.TenantID == nil {
		return scope
	}
	scope.TenantID = *user.TenantID
	if user.Tenant != nil {
		scope.TenantName = user.Tenant.Name
	}
	return scope
}

// HasTenant reports whether the scope can reach any catalog row.
func (s Scope) HasTenant() bool {
	return s.TenantID != uuid.Nil
}
