package model

import "errors"

// Identity invariant violations. They are returned from the persist hook, so the
// write that triggered them never reaches the table.
var (
	ErrTenantRequired  = errors.New("non-superuser users must belong to a tenant")
	ErrTenantForbidden = errors.New("superusers should not belong to any tenant")
)
