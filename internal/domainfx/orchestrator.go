package domainfx

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/dupjob/internal/configfx"
	"github.com/yurykabanov/dupjob/pkg/cache"
	"github.com/yurykabanov/dupjob/pkg/cli"
	"github.com/yurykabanov/dupjob/pkg/command"
	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/engine"
	"github.com/yurykabanov/dupjob/pkg/lock"
	"github.com/yurykabanov/dupjob/pkg/metrics"
	"github.com/yurykabanov/dupjob/pkg/orchestrator"
	"github.com/yurykabanov/dupjob/pkg/report"
)

func LockManager(config *configfx.LockConfig) *lock.Manager {
	return lock.New(config.Directory)
}

func Orchestrator(
	logger logrus.FieldLogger,
	config *configfx.LockConfig,
	locks *lock.Manager,
	builder *command.Builder,
	executor *engine.Executor,
	scripts *engine.ScriptRunner,
	cacheManager *cache.Manager,
) *orchestrator.Orchestrator {
	return orchestrator.New(
		logger,
		orchestrator.Config{LockTimeout: config.Timeout},
		locks,
		builder,
		executor,
		scripts,
		cacheManager,
	)
}

func Reporter() *report.Reporter {
	return report.New(os.Stdout)
}

func Runner(
	logger logrus.FieldLogger,
	registry *domain.Registry,
	o *orchestrator.Orchestrator,
	reporter *report.Reporter,
	textfile *metrics.TextfileWriter,
) *cli.Runner {
	return cli.NewRunner(logger, registry, o, reporter, textfile)
}
