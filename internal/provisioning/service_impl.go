// Package provisioning creates and destroys tenants end to end: registry
// rows, partition namespace, seed data and the first admin user.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/storelane/storelane/internal/account/domain"
	"github.com/storelane/storelane/internal/account/password"
	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/observability"
	"github.com/storelane/storelane/internal/partition"
	"github.com/storelane/storelane/internal/provisioning/domain"
	"github.com/storelane/storelane/internal/ratelimit"
	storedomain "github.com/storelane/storelane/internal/storeconfig/domain"
	tenantdomain "github.com/storelane/storelane/internal/tenant/domain"
	"github.com/storelane/storelane/pkg/db"
)

const (
	maxRoutingKeyLen = 30
	minPasswordLen   = 8
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type Params struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Tenants    tenantdomain.Repository
	Partitions partition.Store
	GenID      *snowflake.Node
	Limiter    *ratelimit.ProvisionLimiter `optional:"true"`
	Resolver   *cache.DomainResolver       `optional:"true"`
	Metrics    *observability.Metrics      `optional:"true"`
}

type service struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	tenants    tenantdomain.Repository
	partitions partition.Store
	genID      *snowflake.Node
	limiter    *ratelimit.ProvisionLimiter
	resolver   *cache.DomainResolver
	metrics    *observability.Metrics
}

func NewService(p Params) domain.Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		cfg:        p.Config,
		db:         p.DB,
		log:        log.Named("provisioning.service"),
		tenants:    p.Tenants,
		partitions: p.Partitions,
		genID:      p.GenID,
		limiter:    p.Limiter,
		resolver:   p.Resolver,
		metrics:    p.Metrics,
	}
}

// NormalizeRoutingKey derives a partition key from free-form input: slugified,
// restricted to [a-z0-9-] and capped at the key length limit.
func NormalizeRoutingKey(raw string) string {
	key := slug.Make(strings.TrimSpace(raw))
	key = strings.ToLower(key)

	var b strings.Builder
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	key = strings.Trim(b.String(), "-")
	if len(key) > maxRoutingKeyLen {
		key = strings.Trim(key[:maxRoutingKeyLen], "-")
	}
	return key
}

func (s *service) validate(req *domain.Request) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.NewValidationError("name", "name is required")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return domain.NewValidationError("email", "email is invalid")
		}
	}

	if strings.TrimSpace(req.RoutingKey) == "" {
		req.RoutingKey = req.Name
	}
	req.RoutingKey = NormalizeRoutingKey(req.RoutingKey)
	if err := partition.ValidateKey(req.RoutingKey); err != nil {
		return domain.NewValidationError("routing_key", "routing key is invalid")
	}

	req.AdminUsername = strings.TrimSpace(req.AdminUsername)
	if req.AdminUsername == "" || !usernamePattern.MatchString(req.AdminUsername) {
		return domain.NewValidationError("admin_username", "admin username is invalid")
	}
	if len(req.AdminPassword) < minPasswordLen {
		return domain.NewValidationError("admin_password", "admin password must be at least 8 characters")
	}

	if req.AdminRole == "" {
		req.AdminRole = accountdomain.RoleAdmin
	}
	if !accountdomain.ValidRole(req.AdminRole) {
		return domain.NewValidationError("admin_role", "admin role is invalid")
	}
	return nil
}

func (s *service) Provision(ctx context.Context, req domain.Request) (*domain.CompanyView, error) {
	view, err := s.provision(ctx, req)
	s.metrics.RecordProvision(ctx, provisionResult(err))
	return view, err
}

func (s *service) provision(ctx context.Context, req domain.Request) (*domain.CompanyView, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	key := req.RoutingKey
	fqdn := key + "." + s.cfg.BaseDomain
	log := s.log.With(zap.String("routing_key", key), zap.String("domain", fqdn))

	// Advisory lock so two racing requests for the same key normally queue.
	// The registry unique constraints remain authoritative if redis is absent.
	token, ok := s.limiter.TryLockKey(ctx, key)
	if !ok {
		return nil, domain.ErrRoutingKeyTaken
	}
	defer s.limiter.ReleaseKey(context.WithoutCancel(ctx), key, token)

	if taken, err := s.tenants.SchemaNameExists(ctx, key); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrRoutingKeyTaken
	}
	if taken, err := s.tenants.DomainExists(ctx, fqdn); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrDomainTaken
	}

	tenant := tenantdomain.Tenant{
		ID:         s.genID.Generate(),
		SchemaName: key,
		Name:       req.Name,
		OnTrial:    true,
	}
	company := tenantdomain.Company{
		ID:       s.genID.Generate(),
		TenantID: tenant.ID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
	}
	binding := tenantdomain.DomainBinding{
		ID:        s.genID.Generate(),
		TenantID:  tenant.ID,
		Domain:    fqdn,
		IsPrimary: true,
	}

	// Stage 1: registry rows, one transaction. A duplicate key here means a
	// concurrent request won the race; the constraint tells us which field.
	var stage string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.tenants.WithTx(tx)
		stage = "tenant"
		if err := repo.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		stage = "binding"
		if err := repo.CreateDomainBinding(ctx, binding); err != nil {
			return err
		}
		stage = "company"
		return repo.CreateCompany(ctx, company)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			if stage == "binding" {
				return nil, domain.ErrDomainTaken
			}
			return nil, domain.ErrRoutingKeyTaken
		}
		return nil, fmt.Errorf("create registry rows: %w", err)
	}

	// Stage 2: the partition itself. From here on any failure must undo the
	// registry rows as well.
	partitionCreated := false
	if err := s.partitions.Create(ctx, key); err != nil {
		return nil, s.compensate(ctx, log, tenant.ID, key, partitionCreated, fmt.Errorf("create partition: %w", err))
	}
	partitionCreated = true

	// Stage 3: seed inside the partition.
	if err := s.seedPartition(ctx, key, req); err != nil {
		return nil, s.compensate(ctx, log, tenant.ID, key, partitionCreated, err)
	}

	log.Info("tenant provisioned", zap.String("tenant_id", tenant.ID.String()))

	return &domain.CompanyView{
		ID:         company.ID.String(),
		TenantID:   tenant.ID.String(),
		Name:       company.Name,
		Email:      company.Email,
		Phone:      company.Phone,
		Address:    company.Address,
		SchemaName: key,
		Domain:     fqdn,
		CreatedAt:  company.CreatedAt,
	}, nil
}

// seedPartition writes the seed rows through a partition scope: the default
// store configuration and the first admin user.
func (s *service) seedPartition(ctx context.Context, key string, req domain.Request) (err error) {
	scope, err := s.partitions.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open partition %s: %w", key, err)
	}
	defer func() {
		cerr := scope.Close(err == nil)
		if err == nil && cerr != nil {
			err = fmt.Errorf("commit partition seed: %w", cerr)
		}
	}()

	cfg := storedomain.Defaults(req.Name)
	cfg.ID = s.genID.Generate()
	if err = scope.DB().Create(&cfg).Error; err != nil {
		return fmt.Errorf("seed store config: %w", err)
	}

	hash, err := password.Hash(req.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := accountdomain.TenantUser{
		ID:           s.genID.Generate(),
		Username:     req.AdminUsername,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.AdminRole,
		IsStaff:      accountdomain.StaffRole(req.AdminRole),
	}
	if err = scope.DB().Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

// compensate rolls the world back after a post-registry failure. It runs on a
// cancellation-free context: an aborted request must not leave half a tenant.
func (s *service) compensate(ctx context.Context, log *zap.Logger, tenantID snowflake.ID, key string, dropPartition bool, cause error) error {
	cctx := context.WithoutCancel(ctx)

	var cleanupErr error
	if dropPartition {
		if err := s.partitions.Drop(cctx, key); err != nil {
			cleanupErr = fmt.Errorf("drop partition: %w", err)
		}
	}
	if cleanupErr == nil {
		if err := s.tenants.DeleteTenantRows(cctx, tenantID); err != nil {
			cleanupErr = fmt.Errorf("delete registry rows: %w", err)
		}
	}

	if cleanupErr != nil {
		log.Error("provisioning cleanup failed",
			zap.NamedError("cause", cause),
			zap.Error(cleanupErr),
		)
		return &domain.PartialFailure{RoutingKey: key, Err: cause, CleanupErr: cleanupErr}
	}

	log.Warn("provisioning rolled back", zap.Error(cause))
	return cause
}

func (s *service) Deprovision(ctx context.Context, routingKey string) error {
	key := NormalizeRoutingKey(routingKey)
	if err := partition.ValidateKey(key); err != nil {
		return domain.NewValidationError("routing_key", "routing key is invalid")
	}

	tenant, err := s.tenants.FindTenantBySchemaName(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return tenantdomain.ErrTenantNotFound
		}
		return err
	}

	bindings, err := s.tenants.ListBindingsByTenant(ctx, tenant.ID)
	if err != nil {
		return err
	}

	// Teardown is destructive from here on; cached resolutions must not
	// outlive it even when it fails partway through.
	defer s.invalidateBindings(bindings)

	// Partition first. A failed drop leaves the registry identity intact, so
	// the same call can simply be retried; the reverse order would strand an
	// orphaned schema with no handle left to reach it.
	if err := s.partitions.Drop(ctx, key); err != nil {
		s.log.Error("deprovision drop failed",
			zap.String("routing_key", key),
			zap.Error(err),
		)
		return fmt.Errorf("drop partition: %w", err)
	}
	if err := s.tenants.DeleteTenantRows(ctx, tenant.ID); err != nil {
		return fmt.Errorf("delete registry rows: %w", err)
	}

	s.log.Info("tenant deprovisioned",
		zap.String("routing_key", key),
		zap.String("tenant_id", tenant.ID.String()),
	)
	return nil
}

func (s *service) invalidateBindings(bindings []tenantdomain.DomainBinding) {
	if s.resolver == nil {
		return
	}
	for _, b := range bindings {
		s.resolver.Invalidate(b.Domain)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func provisionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	default:
		return "error"
	}
}
