// Package domain contains the tenant-partition user model. Rows live inside a
// tenant's own namespace, never in the shared registry.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleClient = "client"
)

// TenantUser is a principal inside one tenant partition. Username and email
// are unique within the partition, not globally.
type TenantUser struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"type:text;not null;uniqueIndex:ux_tenant_users_username" json:"username"`
	Email        string       `gorm:"type:text" json:"email"`
	PasswordHash string       `gorm:"column:password_hash;type:text;not null" json:"-"`
	Role         string       `gorm:"type:text;not null;default:client" json:"role"`
	IsStaff      bool         `gorm:"column:is_staff;not null;default:false" json:"is_staff"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TenantUser) TableName() string { return "tenant_users" }

// ValidRole reports whether role is one of the accepted roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleClient:
		return true
	default:
		return false
	}
}

// StaffRole reports whether role grants staff access to the admin surface.
func StaffRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
