package cli

import (
	"github.com/pkg/errors"

	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/timespec"
)

const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitConfig      = 2
	ExitParse       = 3
	ExitNotFound    = 4
	ExitLockTimeout = 5
	ExitPreScript   = 6
	ExitEngine      = 7
	ExitCleanup     = 8
	ExitRuntime     = 9
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		requestErr   *domain.RequestError
		configErr    *domain.ConfigError
		parseErr     *timespec.ParseError
		notFoundErr  *domain.NotFoundError
		lockErr      *domain.LockTimeoutError
		preScriptErr *domain.PreScriptError
		cleanupErr   *domain.CleanupError
		engineErr    *domain.EngineError
	)

	// CleanupError usually wraps an EngineError, so it is checked first.
	switch {
	case errors.As(err, &requestErr):
		return ExitUsage
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &parseErr):
		return ExitParse
	case errors.As(err, &notFoundErr):
		return ExitNotFound
	case errors.As(err, &lockErr):
		return ExitLockTimeout
	case errors.As(err, &preScriptErr):
		return ExitPreScript
	case errors.As(err, &cleanupErr):
		return ExitCleanup
	case errors.As(err, &engineErr):
		return ExitEngine
	default:
		return ExitRuntime
	}
}

// ResultCode is the exit status of a finished run. A successful backup
// whose cleanup failed still exits non-zero.
func ResultCode(res domain.RunResult) int {
	if res.Err != nil {
		return ExitCode(res.Err)
	}
	if res.CleanupErr != nil {
		return ExitCleanup
	}
	return ExitOK
}
