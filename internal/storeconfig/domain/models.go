// Package domain contains the per-tenant storefront configuration model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// StoreConfig holds a tenant's storefront presentation defaults. Exactly one
// row per partition, seeded during provisioning.
type StoreConfig struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	StoreName    string       `gorm:"column:store_name;type:text;not null" json:"store_name"`
	Tagline      string       `gorm:"type:text" json:"tagline"`
	HeroTitle    string       `gorm:"column:hero_title;type:text" json:"hero_title"`
	HeroSubtitle string       `gorm:"column:hero_subtitle;type:text" json:"hero_subtitle"`
	HeroImage    string       `gorm:"column:hero_image;type:text" json:"hero_image"`
	CtaText      string       `gorm:"column:cta_text;type:text;not null;default:Shop Now" json:"cta_text"`
	BusinessType string       `gorm:"column:business_type;type:text;not null;default:other" json:"business_type"`
	PrimaryColor string       `gorm:"column:primary_color;type:text;not null;default:blue" json:"primary_color"`
	AboutText    string       `gorm:"column:about_text;type:text" json:"about_text"`
	Theme        string       `gorm:"type:text;not null;default:modern" json:"theme"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (StoreConfig) TableName() string { return "store_config" }

// Defaults returns the seed configuration for a newly provisioned store.
func Defaults(storeName string) StoreConfig {
	return StoreConfig{
		StoreName:    storeName,
		Tagline:      "Your Trusted Store",
		HeroTitle:    "Welcome to Our Store",
		HeroSubtitle: "Discover amazing products at great prices.",
		CtaText:      "Shop Now",
		BusinessType: "other",
		PrimaryColor: "blue",
		Theme:        "modern",
	}
}
