package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	provdomain "github.com/storelane/storelane/internal/provisioning/domain"
	tenantdomain "github.com/storelane/storelane/internal/tenant/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTooManyRequests = errors.New("too_many_requests")
	ErrInvalidRequest  = errors.New("invalid_request")

	// errScopeMissing means a tenant-scoped handler ran without the tenant
	// middleware in front of it. A wiring fault, never client input.
	errScopeMissing = errors.New("tenant scope missing from request context")
)

// ErrorHandlingMiddleware converts errors recorded on the gin context into the
// flat {"error": "..."} bodies the public API speaks. Handlers never write
// error responses themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message := mapError(lastErr.Err)
		if status >= http.StatusInternalServerError {
			zap.L().Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(lastErr.Err))
		}
		c.AbortWithStatusJSON(status, gin.H{"error": message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	var vErr *provdomain.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, vErr.Message
	}

	var partial *provdomain.PartialFailure
	if errors.As(err, &partial) {
		return http.StatusInternalServerError, "Provisioning failed, manual cleanup required"
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, tenantdomain.ErrTenantNotFound):
		return http.StatusNotFound, "Tenant not found"
	case errors.Is(err, tenantdomain.ErrCompanyMissing):
		return http.StatusNotFound, "Company not found"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, provdomain.ErrRoutingKeyTaken):
		return http.StatusBadRequest, "Routing key already in use"
	case errors.Is(err, provdomain.ErrDomainTaken):
		return http.StatusBadRequest, "Domain already in use"
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, "Too many requests"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
