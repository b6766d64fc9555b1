package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/storelane/storelane/internal/tenant/domain"
	"github.com/storelane/storelane/internal/tenant/repository"
	dbpkg "github.com/storelane/storelane/pkg/db"
	"gorm.io/gorm"
)

func newRegistry(t *testing.T) (*gorm.DB, domain.Service, *snowflake.Node) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Tenant{}, &domain.DomainBinding{}, &domain.Company{}); err != nil {
		t.Fatalf("failed to migrate registry: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}

	return db, NewService(repository.NewRepository(db)), node
}

func seedTenant(t *testing.T, db *gorm.DB, node *snowflake.Node, key, host string, withCompany bool) domain.Tenant {
	t.Helper()

	tenant := domain.Tenant{ID: node.Generate(), SchemaName: key, Name: key, OnTrial: true}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}
	binding := domain.DomainBinding{ID: node.Generate(), TenantID: tenant.ID, Domain: host, IsPrimary: true}
	if err := db.Create(&binding).Error; err != nil {
		t.Fatalf("failed to seed binding: %v", err)
	}
	if withCompany {
		company := domain.Company{ID: node.Generate(), TenantID: tenant.ID, Name: key, Email: key + "@example.com"}
		if err := db.Create(&company).Error; err != nil {
			t.Fatalf("failed to seed company: %v", err)
		}
	}
	return tenant
}

func TestResolveDomain(t *testing.T) {
	db, svc, node := newRegistry(t)
	tenant := seedTenant(t, db, node, "acme", "acme.example.com", true)

	res, err := svc.ResolveDomain(context.Background(), "acme.example.com")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Tenant.ID != tenant.ID {
		t.Fatalf("expected tenant %v, got %v", tenant.ID, res.Tenant.ID)
	}
	if res.Company == nil || res.Company.TenantID != tenant.ID {
		t.Fatalf("expected the tenant's company, got %+v", res.Company)
	}
}

func TestResolveDomainIsCaseInsensitive(t *testing.T) {
	db, svc, node := newRegistry(t)
	seedTenant(t, db, node, "acme", "acme.example.com", true)

	if _, err := svc.ResolveDomain(context.Background(), "  ACME.Example.COM "); err != nil {
		t.Fatalf("expected mixed-case host to resolve, got %v", err)
	}
}

func TestResolveDomainUnknownHost(t *testing.T) {
	_, svc, _ := newRegistry(t)

	_, err := svc.ResolveDomain(context.Background(), "ghost.example.com")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	_, err = svc.ResolveDomain(context.Background(), "")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound for empty host, got %v", err)
	}
}

func TestResolveDomainTenantWithoutCompany(t *testing.T) {
	db, svc, node := newRegistry(t)
	seedTenant(t, db, node, "acme", "acme.example.com", false)

	_, err := svc.ResolveDomain(context.Background(), "acme.example.com")
	if !errors.Is(err, domain.ErrCompanyMissing) {
		t.Fatalf("expected ErrCompanyMissing, got %v", err)
	}
}

func TestResolveDomainDanglingBinding(t *testing.T) {
	db, svc, node := newRegistry(t)

	binding := domain.DomainBinding{ID: node.Generate(), TenantID: node.Generate(), Domain: "orphan.example.com"}
	if err := db.Create(&binding).Error; err != nil {
		t.Fatalf("failed to seed binding: %v", err)
	}

	_, err := svc.ResolveDomain(context.Background(), "orphan.example.com")
	if !errors.Is(err, domain.ErrCompanyMissing) {
		t.Fatalf("expected ErrCompanyMissing for dangling binding, got %v", err)
	}
}
