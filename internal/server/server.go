package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/observability"
	"github.com/storelane/storelane/internal/partition"
	"github.com/storelane/storelane/internal/provisioning"
	provdomain "github.com/storelane/storelane/internal/provisioning/domain"
	"github.com/storelane/storelane/internal/ratelimit"
	"github.com/storelane/storelane/internal/tenant"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	tenant.Module,
	cache.Module,
	partition.Module,
	ratelimit.Module,
	provisioning.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger())
	r.Use(observability.TracingMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	genID           *snowflake.Node
	resolver        *cache.DomainResolver
	partitions      partition.Store
	provisioningSvc provdomain.Service
	limiter         *ratelimit.ProvisionLimiter
	metrics         *observability.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	GenID           *snowflake.Node
	Resolver        *cache.DomainResolver
	Partitions      partition.Store
	ProvisioningSvc provdomain.Service
	Limiter         *ratelimit.ProvisionLimiter `optional:"true"`
	Metrics         *observability.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		genID:           p.GenID,
		resolver:        p.Resolver,
		partitions:      p.Partitions,
		provisioningSvc: p.ProvisioningSvc,
		limiter:         p.Limiter,
		metrics:         p.Metrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Tenant lifecycle (shared registry, no tenant scope) --------
	api.POST("/tenants", s.ProvisionRateLimit(), s.CreateTenant)
	api.DELETE("/tenants/:key", s.DeleteTenant)

	// -------- Tenant-scoped surface --------
	scoped := api.Group("", s.TenantContext())
	scoped.GET("/company", s.GetCompany)
	scoped.GET("/store/config", s.GetStoreConfig)
	scoped.PUT("/store/config", s.UpdateStoreConfig)
}
