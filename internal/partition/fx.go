package partition

import (
	"go.uber.org/fx"
)

var Module = fx.Module("partition.store",
	fx.Provide(NewSchemaStore),
)
