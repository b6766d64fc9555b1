package migration

import (
	"github.com/storelane/storelane/internal/config"
	tenantdomain "github.com/storelane/storelane/internal/tenant/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Development dialects have no schema support and no embedded
			// migration driver; let gorm shape the registry tables.
			return conn.AutoMigrate(
				&tenantdomain.Tenant{},
				&tenantdomain.DomainBinding{},
				&tenantdomain.Company{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
