package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTenant(ctx context.Context, tenant Tenant) error
	CreateDomainBinding(ctx context.Context, binding DomainBinding) error
	CreateCompany(ctx context.Context, company Company) error

	FindBindingByDomain(ctx context.Context, domain string) (*DomainBinding, error)
	ListBindingsByTenant(ctx context.Context, tenantID snowflake.ID) ([]DomainBinding, error)
	FindTenantByID(ctx context.Context, id snowflake.ID) (*Tenant, error)
	FindTenantBySchemaName(ctx context.Context, schemaName string) (*Tenant, error)
	FindCompanyByTenantID(ctx context.Context, tenantID snowflake.ID) (*Company, error)

	SchemaNameExists(ctx context.Context, schemaName string) (bool, error)
	DomainExists(ctx context.Context, domain string) (bool, error)

	// DeleteTenantRows removes the tenant, its domain bindings and its company
	// from the registry. Used by deprovisioning and by the provisioning
	// compensation path.
	DeleteTenantRows(ctx context.Context, tenantID snowflake.ID) error
}
