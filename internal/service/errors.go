package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both missing rows and rows owned by another tenant.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is matched by every *DuplicateNameError.
	ErrDuplicateName = errors.New("duplicate name")

	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrTooManyAttempts    = errors.New("too many login attempts, try again later")
)

// Entities that carry a unique name.
const (
	EntityTenant  = "tenant"
	EntityUser    = "user"
	EntityProduct = "product"
)

// DuplicateNameError reports a unique-name collision and renders the message the
// API returns under Field.
type DuplicateNameError struct {
	Entity string
	Field  string
	Name   string
	Tenant string
}

func (e *DuplicateNameError) Error() string {
	switch e.Entity {
	case EntityProduct:
		return fmt.Sprintf("Product with name '%s' already exists for the tenant '%s'.", e.Name, e.Tenant)
	case EntityUser:
		return "A user with that username already exists."
	default:
		return "Tenant with this name already exists."
	}
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}
