package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/storelane/storelane/internal/tenant/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateTenant(ctx context.Context, tenant domain.Tenant) error {
	return r.db.WithContext(ctx).Create(&tenant).Error
}

func (r *repository) CreateDomainBinding(ctx context.Context, binding domain.DomainBinding) error {
	return r.db.WithContext(ctx).Create(&binding).Error
}

func (r *repository) CreateCompany(ctx context.Context, company domain.Company) error {
	return r.db.WithContext(ctx).Create(&company).Error
}

func (r *repository) FindBindingByDomain(ctx context.Context, host string) (*domain.DomainBinding, error) {
	var binding domain.DomainBinding
	if err := r.db.WithContext(ctx).First(&binding, "domain = ?", host).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}

func (r *repository) ListBindingsByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.DomainBinding, error) {
	var bindings []domain.DomainBinding
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("is_primary DESC, domain ASC").
		Find(&bindings).Error
	return bindings, err
}

func (r *repository) FindTenantByID(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) FindTenantBySchemaName(ctx context.Context, schemaName string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "schema_name = ?", schemaName).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) FindCompanyByTenantID(ctx context.Context, tenantID snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	if err := r.db.WithContext(ctx).First(&company, "tenant_id = ?", tenantID).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) SchemaNameExists(ctx context.Context, schemaName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("schema_name = ?", schemaName).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) DomainExists(ctx context.Context, host string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.DomainBinding{}).
		Where("domain = ?", host).
		Count(&count).Error
	return count > 0, err
}

// DeleteTenantRows removes a tenant's registry identity in one transaction so
// a mid-sequence failure never leaves a partially deleted registry.
func (r *repository) DeleteTenantRows(ctx context.Context, tenantID snowflake.ID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM domain_bindings WHERE tenant_id = ?`, tenantID,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`DELETE FROM companies WHERE tenant_id = ?`, tenantID,
		).Error; err != nil {
			return err
		}
		return tx.Exec(
			`DELETE FROM tenants WHERE id = ?`, tenantID,
		).Error
	})
}
