package engine

import (
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultEnvFile = "/usr/local/etc/duplicity_env.sh"

	EnvOptions    = "DUPLICITY_OPTIONS"
	EnvArchiveDir = "DUPLICITY_ARCHIVE_DIR"
)

// LoadEnv merges the KEY=VALUE (optionally `export`-prefixed) assignments
// of path over base. Variables from the file win. The error of a missing
// file satisfies os.IsNotExist through errors.Cause.
func LoadEnv(base []string, path string) ([]string, error) {
	if path == "" {
		return base, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return base, errors.Wrapf(err, "Unable to read environment file %s", path)
	}

	return MergeEnv(base, vars), nil
}

// MergeEnv overrides or appends vars in base. The result is sorted.
func MergeEnv(base []string, vars map[string]string) []string {
	merged := make(map[string]string, len(base)+len(vars))

	for _, kv := range base {
		k, v, _ := strings.Cut(kv, "=")
		merged[k] = v
	}

	for k, v := range vars {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	return env
}

// Lookup returns the value of key in env. Later entries win, as with exec.
func Lookup(env []string, key string) (string, bool) {
	var (
		value string
		found bool
	)

	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			value, found = v, true
		}
	}

	return value, found
}

// Options splits DUPLICITY_OPTIONS into separate arguments.
func Options(env []string) []string {
	v, _ := Lookup(env, EnvOptions)
	return strings.Fields(v)
}
