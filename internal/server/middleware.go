package server

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storelane/storelane/internal/observability"
	"github.com/storelane/storelane/pkg/tenantctx"
	"go.uber.org/zap"
)

// TenantContext resolves the tenant for a request and opens its partition
// scope. Every route behind it runs confined to one tenant namespace; routes
// in front of it only ever see the shared registry.
func (s *Server) TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		host := s.routingHost(c)

		res, err := s.resolver.ResolveDomain(ctx, host)
		if err != nil {
			s.metrics.RecordResolution(ctx, "miss")
			AbortWithError(c, err)
			return
		}
		s.metrics.RecordResolution(ctx, "hit")

		scope, err := s.partitions.Open(ctx, res.Tenant.SchemaName)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx = tenantctx.WithResolution(ctx, res)
		ctx = tenantctx.WithScope(ctx, scope)
		c.Request = c.Request.WithContext(ctx)

		// The deferred close runs on every exit path, including a panic
		// unwinding toward gin's Recovery. Commit only a clean pass.
		completed := false
		defer func() {
			if cerr := scope.Close(completed && len(c.Errors) == 0); cerr != nil {
				observability.LoggerFromContext(c.Request.Context()).Error("partition scope close failed",
					zap.String("partition", res.Tenant.SchemaName),
					zap.Error(cerr),
				)
			}
		}()

		c.Next()
		completed = true
	}
}

// routingHost picks the hostname used for tenant resolution: the override
// header when present, otherwise the request host without its port. A bare
// key in the header gets the configured local suffix appended so development
// clients can address tenants without DNS.
func (s *Server) routingHost(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(s.cfg.TenantHeader)); v != "" {
		if s.cfg.LocalDomainSuffix != "" && !strings.Contains(v, ".") {
			v = v + "." + s.cfg.LocalDomainSuffix
		}
		return strings.ToLower(v)
	}

	host := c.Request.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSpace(host))
}

// ProvisionRateLimit throttles tenant creation per client IP.
func (s *Server) ProvisionRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.AllowClient(c.Request.Context(), c.ClientIP()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
