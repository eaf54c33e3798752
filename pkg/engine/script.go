package engine

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/dupjob/pkg/appcontext"
	"github.com/yurykabanov/dupjob/pkg/domain"
)

// ScriptRunner runs a job's pre-script with the job described in its
// environment.
type ScriptRunner struct {
	logger logrus.FieldLogger

	env    []string
	stdout io.Writer
	stderr io.Writer
}

func NewScriptRunner(logger logrus.FieldLogger, env []string) *ScriptRunner {
	return &ScriptRunner{
		logger: logger,
		env:    env,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// Run executes job.PreScript to completion. Any failure, including a
// missing script, is returned as *domain.PreScriptError.
func (r *ScriptRunner) Run(ctx context.Context, job domain.Job) error {
	if !job.HasPreScript() {
		return nil
	}

	logger := appcontext.LoggerFromContext(r.logger, ctx)
	name := strings.Join(job.PreScript, " ")

	path, err := resolveScript(job.PreScript[0])
	if err != nil {
		return &domain.PreScriptError{Command: name, ExitCode: -1, Err: err}
	}

	if job.PreScriptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.PreScriptTimeout)
		defer cancel()
	}

	tail := &tailBuffer{max: stderrTailSize}

	cmd := exec.CommandContext(ctx, path, job.PreScript[1:]...)
	cmd.Env = r.environment(job)
	cmd.Stdout = r.stdout
	cmd.Stderr = io.MultiWriter(r.stderr, tail)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = DefaultWaitDelay

	logger.WithField("command", name).Info("Running pre-script")

	err = cmd.Run()
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return &domain.PreScriptError{Command: name, ExitCode: -1, Stderr: tail.String(), Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &domain.PreScriptError{Command: name, ExitCode: exitErr.ExitCode(), Stderr: tail.String()}
	}

	return &domain.PreScriptError{Command: name, ExitCode: -1, Err: err}
}

func (r *ScriptRunner) environment(job domain.Job) []string {
	return MergeEnv(r.env, map[string]string{
		"BACKUP_JOB_NAME":    job.Name,
		"BACKUP_SOURCE":      job.Source,
		"BACKUP_DESTINATION": job.Destination,
		"BACKUP_TYPE":        string(job.Type),
	})
}

// resolveScript checks that the script exists and is executable. Bare
// names are looked up in PATH.
func resolveScript(name string) (string, error) {
	if !strings.ContainsRune(name, os.PathSeparator) {
		path, err := exec.LookPath(name)
		if err != nil {
			return "", errors.Wrapf(err, "Unable to find %s", name)
		}
		return path, nil
	}

	info, err := os.Stat(name)
	if err != nil {
		return "", errors.Wrapf(err, "Unable to find %s", name)
	}

	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return "", errors.Errorf("%s is not executable", name)
	}

	return name, nil
}
