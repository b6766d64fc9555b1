package partition

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// tenantDDL is applied inside the new schema during Create. Table names are
// unqualified on purpose: search_path selects the schema.
var tenantDDL = []string{
	`CREATE TABLE store_config (
		id BIGINT PRIMARY KEY,
		store_name TEXT NOT NULL,
		tagline TEXT,
		hero_title TEXT,
		hero_subtitle TEXT,
		hero_image TEXT,
		cta_text TEXT NOT NULL DEFAULT 'Shop Now',
		business_type TEXT NOT NULL DEFAULT 'other',
		primary_color TEXT NOT NULL DEFAULT 'blue',
		about_text TEXT,
		theme TEXT NOT NULL DEFAULT 'modern',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE tenant_users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'client',
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX ux_tenant_users_username ON tenant_users (username)`,
	`CREATE UNIQUE INDEX ux_tenant_users_email ON tenant_users (email) WHERE email IS NOT NULL AND email <> ''`,
}

// schemaStore implements Store on Postgres schemas.
type schemaStore struct {
	db *gorm.DB
}

func NewSchemaStore(db *gorm.DB) Store {
	return &schemaStore{db: db}
}

func (s *schemaStore) Create(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`CREATE SCHEMA ` + quoteIdent(key)).Error; err != nil {
			return fmt.Errorf("create schema %s: %w", key, err)
		}
		if err := tx.Exec(`SET LOCAL search_path TO ` + quoteIdent(key)).Error; err != nil {
			return err
		}
		for _, stmt := range tenantDDL {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("apply tenant ddl in %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *schemaStore) Drop(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Exec(`DROP SCHEMA IF EXISTS ` + quoteIdent(key) + ` CASCADE`).Error; err != nil {
		return fmt.Errorf("drop schema %s: %w", key, err)
	}
	return nil
}

func (s *schemaStore) Open(ctx context.Context, key string) (*Scope, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	// SET LOCAL pins the search_path to this transaction only, so the pooled
	// connection comes back clean whichever way the scope closes.
	if err := tx.Exec(`SET LOCAL search_path TO ` + quoteIdent(key)).Error; err != nil {
		_ = tx.Rollback().Error
		return nil, err
	}

	return NewScope(key, tx, func(commit bool) error {
		if commit {
			return tx.Commit().Error
		}
		return tx.Rollback().Error
	}), nil
}
