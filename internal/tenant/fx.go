package tenant

import (
	"github.com/storelane/storelane/internal/tenant/repository"
	"github.com/storelane/storelane/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
