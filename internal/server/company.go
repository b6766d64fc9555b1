package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/storelane/storelane/internal/tenant/domain"
	"github.com/storelane/storelane/pkg/tenantctx"
)

// GetCompany returns the company resolved for this request's tenant.
func (s *Server) GetCompany(c *gin.Context) {
	company, ok := tenantctx.CompanyFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, tenantdomain.ErrCompanyMissing)
		return
	}
	c.JSON(http.StatusOK, company)
}
