package configfx

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurykabanov/dupjob/pkg/cli"
	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/engine"
)

const testConfig = `
destination: "file:///srv/backup/"
archive_dir: /var/cache/duplicity
engine:
  options: ["--s3-use-new-style"]
lock:
  timeout: 30s
encryption:
  keys: ["ABCD1234"]
metrics:
  textfile_dir: /var/lib/node_exporter
jobs:
  var_log:
    source: /var/log
    schedule:
      minute: 30
  etc:
    source: /etc
`

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard

	return logger
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dupjob.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	return path
}

type parsed struct {
	V    *viper.Viper
	Opts cli.Options
}

func parse(t *testing.T, args ...string) (*parsed, error) {
	t.Helper()

	fs := PFlags()
	require.NoError(t, fs.Parse(args))

	v, err := ViperProvider(discardLogger(), fs)
	if err != nil {
		return nil, err
	}

	opts, err := OptionsProvider(fs, v)
	if err != nil {
		return nil, err
	}

	return &parsed{V: v, Opts: opts}, nil
}

func TestOptionsProvider(t *testing.T) {
	path := writeConfig(t, testConfig)

	o, err := parse(t, "-c", path, "--job", "var_log", "--nice", "5", "-t", "3D", "--force", "backup")
	require.NoError(t, err)

	assert.Equal(t, "backup", o.Opts.Action)
	assert.Equal(t, "var_log", o.Opts.Job)
	assert.False(t, o.Opts.All)
	assert.Equal(t, "3D", o.Opts.Time)
	assert.True(t, o.Opts.Force)
	assert.False(t, o.Opts.Progress)
	assert.Equal(t, engine.Priority{Nice: 5, IOClass: engine.DefaultIOClass, IOLevel: engine.DefaultIOLevel}, o.Opts.Priority)
}

func TestOptionsProvider_NoAction(t *testing.T) {
	_, err := parse(t, "-c", writeConfig(t, testConfig), "--all")

	var rerr *domain.RequestError
	assert.ErrorAs(t, err, &rerr)
}

func TestViperProvider_MissingExplicitConfig(t *testing.T) {
	_, err := parse(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "list")

	assert.Error(t, err)
}

func TestConfigProviders(t *testing.T) {
	o, err := parse(t, "-c", writeConfig(t, testConfig), "list")
	require.NoError(t, err)

	engineConfig := EngineConfigProvider(o.V)
	assert.Equal(t, "duplicity", engineConfig.Binary)
	assert.Equal(t, []string{"--s3-use-new-style"}, engineConfig.Options)
	assert.Equal(t, "/var/cache/duplicity", engineConfig.ArchiveDir)
	assert.Equal(t, engine.DefaultEnvFile, engineConfig.EnvFile)
	assert.Equal(t, "AES256", engineConfig.CipherAlgo)
	assert.Equal(t, []string{"ABCD1234"}, engineConfig.Keys)

	lockConfig := LockConfigProvider(o.V)
	assert.Equal(t, 30*time.Second, lockConfig.Timeout)
	assert.Empty(t, lockConfig.Directory)

	assert.Equal(t, "/var/lib/node_exporter", MetricsConfigProvider(o.V).TextfileDir)
}

func TestLoadRegistry(t *testing.T) {
	o, err := parse(t, "-c", writeConfig(t, testConfig), "list")
	require.NoError(t, err)

	registry, err := LoadRegistry(discardLogger(), o.V)
	require.NoError(t, err)

	require.Equal(t, 2, registry.Len())

	job, err := registry.Get("var_log")
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/backup/var_log", job.Destination)
	assert.Equal(t, "var_log", job.ArchiveName)

	jobs := registry.Jobs()
	assert.Equal(t, "var_log", jobs[0].Name)
	assert.Equal(t, "etc", jobs[1].Name)
}

func TestLoadRegistry_DestinationFromEnvironment(t *testing.T) {
	t.Setenv("DUPJOB_DESTINATION", "sftp://vault/web1")

	o, err := parse(t, "-c", writeConfig(t, testConfig), "list")
	require.NoError(t, err)

	registry, err := LoadRegistry(discardLogger(), o.V)
	require.NoError(t, err)

	job, err := registry.Get("etc")
	require.NoError(t, err)
	assert.Equal(t, "sftp://vault/web1/etc", job.Destination)
}

func TestLoadRegistry_InvalidJob(t *testing.T) {
	o, err := parse(t, "-c", writeConfig(t, "jobs:\n  broken:\n    retention: 2\n"), "list")
	require.NoError(t, err)

	_, err = LoadRegistry(discardLogger(), o.V)

	var cerr *domain.ConfigError
	assert.ErrorAs(t, err, &cerr)
}
