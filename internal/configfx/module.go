package configfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ViperProvider),
	fx.Provide(OptionsProvider),
	fx.Provide(EngineConfigProvider),
	fx.Provide(LockConfigProvider),
	fx.Provide(MetricsConfigProvider),
	fx.Provide(LoadRegistry),
)
