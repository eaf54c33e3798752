package domainfx

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/dupjob/internal/configfx"
	"github.com/yurykabanov/dupjob/pkg/cache"
	"github.com/yurykabanov/dupjob/pkg/cli"
	"github.com/yurykabanov/dupjob/pkg/command"
	"github.com/yurykabanov/dupjob/pkg/engine"
)

// Env is the environment handed to the engine and to pre-scripts.
type Env []string

func EnvProvider(logger logrus.FieldLogger, config *configfx.EngineConfig) Env {
	env, err := engine.LoadEnv(os.Environ(), config.EnvFile)
	if err != nil {
		// running without the file is fine as long as credentials come
		// from the process environment
		logger.WithError(err).Warn("Environment file not loaded")
	}

	return env
}

func CacheManager(config *configfx.EngineConfig, env Env) *cache.Manager {
	fromEnv, _ := engine.Lookup(env, engine.EnvArchiveDir)
	home, _ := os.UserHomeDir()

	return cache.New(cache.ResolveBase(config.ArchiveDir, fromEnv, home))
}

func CommandBuilder(config *configfx.EngineConfig, env Env) *command.Builder {
	options := append(engine.Options(env), config.Options...)

	return &command.Builder{
		Binary:      config.Binary,
		Options:     options,
		CipherAlgo:  config.CipherAlgo,
		EncryptKeys: config.Keys,
		Env:         env,
	}
}

func Executor(logger logrus.FieldLogger, opts cli.Options) *engine.Executor {
	return engine.NewExecutor(logger, opts.Priority)
}

func ScriptRunner(logger logrus.FieldLogger, env Env) *engine.ScriptRunner {
	return engine.NewScriptRunner(logger, env)
}
