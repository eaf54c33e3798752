package configfx

import (
	"time"

	"github.com/spf13/viper"

	"github.com/yurykabanov/dupjob/pkg/command"
	"github.com/yurykabanov/dupjob/pkg/engine"
	"github.com/yurykabanov/dupjob/pkg/orchestrator"
)

const (
	ConfigDestination = "destination"
	ConfigArchiveDir  = "archive_dir"
	ConfigEnvFile     = "env_file"

	ConfigEngineBinary  = "engine.binary"
	ConfigEngineOptions = "engine.options"

	ConfigLockTimeout   = "lock.timeout"
	ConfigLockDirectory = "lock.directory"

	ConfigEncryptionCipherAlgo = "encryption.cipher_algo"
	ConfigEncryptionKeys       = "encryption.keys"

	ConfigMetricsTextfileDir = "metrics.textfile_dir"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigEnvFile, engine.DefaultEnvFile)
	v.SetDefault(ConfigEngineBinary, command.DefaultBinary)
	v.SetDefault(ConfigLockTimeout, orchestrator.DefaultLockTimeout)
	v.SetDefault(ConfigEncryptionCipherAlgo, command.DefaultCipherAlgo)
}

type EngineConfig struct {
	Binary     string
	Options    []string
	EnvFile    string
	ArchiveDir string
	CipherAlgo string
	Keys       []string
}

func EngineConfigProvider(v *viper.Viper) *EngineConfig {
	return &EngineConfig{
		Binary:     v.GetString(ConfigEngineBinary),
		Options:    v.GetStringSlice(ConfigEngineOptions),
		EnvFile:    v.GetString(ConfigEnvFile),
		ArchiveDir: v.GetString(ConfigArchiveDir),
		CipherAlgo: v.GetString(ConfigEncryptionCipherAlgo),
		Keys:       v.GetStringSlice(ConfigEncryptionKeys),
	}
}

type LockConfig struct {
	Timeout   time.Duration
	Directory string
}

func LockConfigProvider(v *viper.Viper) *LockConfig {
	return &LockConfig{
		Timeout:   v.GetDuration(ConfigLockTimeout),
		Directory: v.GetString(ConfigLockDirectory),
	}
}

type MetricsConfig struct {
	TextfileDir string
}

func MetricsConfigProvider(v *viper.Viper) *MetricsConfig {
	return &MetricsConfig{
		TextfileDir: v.GetString(ConfigMetricsTextfileDir),
	}
}
