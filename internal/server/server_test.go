package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/storelane/storelane/internal/account/domain"
	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/observability"
	"github.com/storelane/storelane/internal/partition"
	"github.com/storelane/storelane/internal/provisioning"
	provdomain "github.com/storelane/storelane/internal/provisioning/domain"
	storedomain "github.com/storelane/storelane/internal/storeconfig/domain"
	tenantdomain "github.com/storelane/storelane/internal/tenant/domain"
	"github.com/storelane/storelane/internal/tenant/repository"
	tenantservice "github.com/storelane/storelane/internal/tenant/service"
	dbpkg "github.com/storelane/storelane/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// trackedScope records how a scope was released so tests can assert the
// middleware closed it on every exit path.
type trackedScope struct {
	key      string
	closed   bool
	commited bool
}

// fakeStore implements partition.Store on the shared test database.
type fakeStore struct {
	db *gorm.DB

	mu      sync.Mutex
	created map[string]bool
	scopes  []*trackedScope

	failClose bool
}

func newFakeStore(db *gorm.DB) *fakeStore {
	return &fakeStore{db: db, created: make(map[string]bool)}
}

func (f *fakeStore) Create(ctx context.Context, key string) error {
	if err := partition.ValidateKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	f.created[key] = true
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) Drop(ctx context.Context, key string) error {
	f.mu.Lock()
	delete(f.created, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (*partition.Scope, error) {
	f.mu.Lock()
	ok := f.created[key]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("partition %q does not exist", key)
	}

	tx := f.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	tracked := &trackedScope{key: key}
	f.mu.Lock()
	f.scopes = append(f.scopes, tracked)
	f.mu.Unlock()

	return partition.NewScope(key, tx, func(commit bool) error {
		tracked.closed = true
		tracked.commited = commit
		if commit {
			if f.failClose {
				_ = tx.Rollback()
				return errors.New("connection reset during commit")
			}
			return tx.Commit().Error
		}
		return tx.Rollback().Error
	}), nil
}

func (f *fakeStore) lastScope(t *testing.T) *trackedScope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scopes) == 0 {
		t.Fatalf("no scope was opened")
	}
	return f.scopes[len(f.scopes)-1]
}

func newTestServer(t *testing.T) (*Server, *gorm.DB, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(
		&tenantdomain.Tenant{},
		&tenantdomain.DomainBinding{},
		&tenantdomain.Company{},
		&storedomain.StoreConfig{},
		&accountdomain.TenantUser{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}

	cfg := config.Config{
		BaseDomain:        "example.com",
		TenantHeader:      "X-Retailer-Domain",
		LocalDomainSuffix: "example.com",
	}

	repo := repository.NewRepository(db)
	store := newFakeStore(db)
	resolver := cache.NewDomainResolver(tenantservice.NewService(repo))
	provisioningSvc := provisioning.NewService(provisioning.Params{
		Config:     cfg,
		DB:         db,
		Log:        zap.NewNop(),
		Tenants:    repo,
		Partitions: store,
		GenID:      node,
		Resolver:   resolver,
	})

	srv := NewServer(ServerParams{
		Gin:             NewEngine(observability.Config{}),
		Cfg:             cfg,
		GenID:           node,
		Resolver:        resolver,
		Partitions:      store,
		ProvisioningSvc: provisioningSvc,
	})
	return srv, db, store
}

func newFailingServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{TenantHeader: "X-Retailer-Domain"}
	return NewServer(ServerParams{
		Gin:        NewEngine(observability.Config{}),
		Cfg:        cfg,
		Resolver:   cache.NewDomainResolver(failingService{}),
		Partitions: newFakeStore(nil),
	})
}

type failingService struct{}

func (failingService) ResolveDomain(context.Context, string) (*tenantdomain.Resolution, error) {
	return nil, errors.New("registry unreachable")
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{tenantdomain.ErrTenantNotFound, 404, "Tenant not found"},
		{tenantdomain.ErrCompanyMissing, 404, "Company not found"},
		{provdomain.ErrRoutingKeyTaken, 400, "Routing key already in use"},
		{provdomain.ErrDomainTaken, 400, "Domain already in use"},
		{errors.New("anything else"), 500, "Internal server error"},
		{ErrTooManyRequests, 429, "Too many requests"},
		{ErrInvalidRequest, 400, "Invalid request"},
	}
	for _, tc := range cases {
		status, message := mapError(tc.err)
		if status != tc.status || message != tc.message {
			t.Fatalf("mapError(%v) = %d %q, expected %d %q", tc.err, status, message, tc.status, tc.message)
		}
	}
}
