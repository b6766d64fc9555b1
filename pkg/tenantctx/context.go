// Package tenantctx carries the resolved tenant state through the request
// context. Explicit context values replace any notion of a "current tenant"
// global so concurrent requests for different tenants stay provably isolated.
package tenantctx

import (
	"context"

	"github.com/storelane/storelane/internal/partition"
	tenantdomain "github.com/storelane/storelane/internal/tenant/domain"
)

type companyKey struct{}
type tenantKey struct{}
type scopeKey struct{}

// WithResolution stores the resolved tenant and company in the context.
func WithResolution(ctx context.Context, res *tenantdomain.Resolution) context.Context {
	if res == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, tenantKey{}, res.Tenant)
	return context.WithValue(ctx, companyKey{}, res.Company)
}

// CompanyFromContext returns the company resolved by the middleware.
func CompanyFromContext(ctx context.Context) (*tenantdomain.Company, bool) {
	company, ok := ctx.Value(companyKey{}).(*tenantdomain.Company)
	return company, ok && company != nil
}

// TenantFromContext returns the tenant resolved by the middleware.
func TenantFromContext(ctx context.Context) (*tenantdomain.Tenant, bool) {
	tenant, ok := ctx.Value(tenantKey{}).(*tenantdomain.Tenant)
	return tenant, ok && tenant != nil
}

// WithScope stores the open partition scope in the context.
func WithScope(ctx context.Context, scope *partition.Scope) context.Context {
	if scope == nil {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext returns the partition scope opened for this request.
// Handlers use its DB() for every tenant-owned table.
func ScopeFromContext(ctx context.Context) (*partition.Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(*partition.Scope)
	return scope, ok && scope != nil
}
