package cache

import (
	"context"
	"strings"
	"time"

	tenantdomain "github.com/storelane/storelane/internal/tenant/domain"
)

const defaultResolutionTTL = 30 * time.Second

// DomainResolver memoizes positive registry lookups in front of the tenant
// service. The registry is read by every request and written only by
// provisioning flows, so a short TTL keeps the hot path off the database.
// Misses are never cached: a freshly provisioned tenant must resolve on the
// next request.
type DomainResolver struct {
	next    tenantdomain.Service
	entries Cache[string, *tenantdomain.Resolution]
	ttl     time.Duration
}

// NewDomainResolver wraps the registry resolution service with a TTL cache.
func NewDomainResolver(next tenantdomain.Service) *DomainResolver {
	return &DomainResolver{
		next:    next,
		entries: NewTTLCache[string, *tenantdomain.Resolution](),
		ttl:     defaultResolutionTTL,
	}
}

func (r *DomainResolver) ResolveDomain(ctx context.Context, host string) (*tenantdomain.Resolution, error) {
	key := cacheKey(host)
	if res, ok := r.entries.Get(key); ok {
		return res, nil
	}

	res, err := r.next.ResolveDomain(ctx, host)
	if err != nil {
		return nil, err
	}

	r.entries.Set(key, res, r.ttl)
	return res, nil
}

// Invalidate drops the cached resolution for a hostname. Deprovisioning calls
// this so a destroyed tenant stops resolving immediately.
func (r *DomainResolver) Invalidate(host string) {
	r.entries.Delete(cacheKey(host))
}

func cacheKey(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
