package domain

import (
	"context"
	"errors"
)

// Resolution is the outcome of mapping a routing key to a tenant.
type Resolution struct {
	Tenant  *Tenant
	Company *Company
}

type Service interface {
	// ResolveDomain maps a fully-qualified hostname to its tenant and company.
	// An unknown hostname yields ErrTenantNotFound. A tenant without a company
	// is registry corruption and yields ErrCompanyMissing, never
	// ErrTenantNotFound.
	ResolveDomain(ctx context.Context, domain string) (*Resolution, error)
}

var (
	ErrTenantNotFound = errors.New("tenant_not_found")
	ErrCompanyMissing = errors.New("company_missing")
)
