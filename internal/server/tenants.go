package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	provdomain "github.com/storelane/storelane/internal/provisioning/domain"
)

// CreateTenant provisions a new tenant end to end and returns its company
// record with the bound domain.
func (s *Server) CreateTenant(c *gin.Context) {
	var req provdomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	view, err := s.provisioningSvc.Provision(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// DeleteTenant destroys a tenant: registry rows and its partition.
func (s *Server) DeleteTenant(c *gin.Context) {
	if err := s.provisioningSvc.Deprovision(c.Request.Context(), c.Param("key")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
