package domainfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(EnvProvider),
	fx.Provide(CacheManager),
	fx.Provide(CommandBuilder),
	fx.Provide(Executor),
	fx.Provide(ScriptRunner),
	fx.Provide(LockManager),
	fx.Provide(Orchestrator),
	fx.Provide(Reporter),
	fx.Provide(Runner),
)
