// Package domain contains the shared registry models. These tables are never
// partitioned; they must be reachable before a tenant is known.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is the identity record for one customer partition. SchemaName is the
// partition key: globally unique and immutable once set.
type Tenant struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	SchemaName string       `gorm:"type:text;not null;uniqueIndex:ux_tenants_schema_name" json:"schema_name"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	OnTrial    bool         `gorm:"column:on_trial;not null;default:true" json:"on_trial"`
	PaidUntil  *time.Time   `gorm:"column:paid_until" json:"paid_until"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// DomainBinding maps a fully-qualified hostname to exactly one tenant.
type DomainBinding struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Domain    string       `gorm:"type:text;not null;uniqueIndex:ux_domain_bindings_domain" json:"domain"`
	IsPrimary bool         `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (DomainBinding) TableName() string { return "domain_bindings" }

// Company is the tenant-facing business metadata, one-to-one with Tenant.
type Company struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;uniqueIndex:ux_companies_tenant_id" json:"tenant_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text" json:"email"`
	Phone     string       `gorm:"type:text" json:"phone"`
	Address   string       `gorm:"type:text" json:"address"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }
