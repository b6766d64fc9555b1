package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	storedomain "github.com/storelane/storelane/internal/storeconfig/domain"
	"github.com/storelane/storelane/pkg/tenantctx"
)

// GetStoreConfig returns the storefront configuration from the tenant's own
// partition. There is exactly one row per tenant.
func (s *Server) GetStoreConfig(c *gin.Context) {
	scope, ok := tenantctx.ScopeFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, errScopeMissing)
		return
	}

	var cfg storedomain.StoreConfig
	if err := scope.DB().First(&cfg).Error; err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type updateStoreConfigRequest struct {
	StoreName    *string `json:"store_name"`
	Tagline      *string `json:"tagline"`
	HeroTitle    *string `json:"hero_title"`
	HeroSubtitle *string `json:"hero_subtitle"`
	HeroImage    *string `json:"hero_image"`
	CtaText      *string `json:"cta_text"`
	BusinessType *string `json:"business_type"`
	PrimaryColor *string `json:"primary_color"`
	AboutText    *string `json:"about_text"`
	Theme        *string `json:"theme"`
}

// UpdateStoreConfig applies a partial update to the tenant's storefront
// configuration. Only the fields present in the body change.
func (s *Server) UpdateStoreConfig(c *gin.Context) {
	scope, ok := tenantctx.ScopeFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, errScopeMissing)
		return
	}

	var req updateStoreConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var cfg storedomain.StoreConfig
	if err := scope.DB().First(&cfg).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if req.StoreName != nil {
		name := strings.TrimSpace(*req.StoreName)
		if name == "" {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		cfg.StoreName = name
	}
	if req.Tagline != nil {
		cfg.Tagline = *req.Tagline
	}
	if req.HeroTitle != nil {
		cfg.HeroTitle = *req.HeroTitle
	}
	if req.HeroSubtitle != nil {
		cfg.HeroSubtitle = *req.HeroSubtitle
	}
	if req.HeroImage != nil {
		cfg.HeroImage = *req.HeroImage
	}
	if req.CtaText != nil {
		cfg.CtaText = *req.CtaText
	}
	if req.BusinessType != nil {
		cfg.BusinessType = *req.BusinessType
	}
	if req.PrimaryColor != nil {
		cfg.PrimaryColor = *req.PrimaryColor
	}
	if req.AboutText != nil {
		cfg.AboutText = *req.AboutText
	}
	if req.Theme != nil {
		cfg.Theme = *req.Theme
	}

	if err := scope.DB().Save(&cfg).Error; err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
