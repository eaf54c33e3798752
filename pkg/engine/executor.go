// Package engine runs the backup engine and job pre-scripts as child
// processes of the orchestrator.
package engine

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/dupjob/pkg/appcontext"
	"github.com/yurykabanov/dupjob/pkg/command"
)

const (
	DefaultWaitDelay = 30 * time.Second

	stderrTailSize = 16 * 1024
)

type Result struct {
	ExitCode int
	Stderr   string
}

type Executor struct {
	logger logrus.FieldLogger

	stdout io.Writer
	stderr io.Writer

	priority  Priority
	waitDelay time.Duration
}

func NewExecutor(logger logrus.FieldLogger, priority Priority) *Executor {
	return &Executor{
		logger:    logger,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		priority:  priority,
		waitDelay: DefaultWaitDelay,
	}
}

// Run executes inv and waits for it. A non-zero exit is reported through
// Result, not as an error; errors mean the engine could not be started or
// the run was cancelled through ctx. On cancellation the child receives
// SIGTERM and is killed if it is still alive after the wait delay.
func (e *Executor) Run(ctx context.Context, inv command.Invocation) (Result, error) {
	logger := appcontext.LoggerFromContext(e.logger, ctx)

	tail := &tailBuffer{max: stderrTailSize}

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Env = inv.Env
	cmd.Stdout = e.stdout
	cmd.Stderr = io.MultiWriter(e.stderr, tail)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.waitDelay

	logger.WithField("command", inv.String()).Debug("Starting engine")

	err := startPrioritized(cmd, e.priority, func(err error) {
		logger.WithError(err).Warn("Unable to adjust engine priority")
	})
	if err != nil {
		return Result{ExitCode: -1}, errors.Wrapf(err, "Unable to start %s", inv.Path)
	}

	err = cmd.Wait()

	res := Result{ExitCode: cmd.ProcessState.ExitCode(), Stderr: tail.String()}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, errors.Wrap(err, "Unable to wait for engine")
	}

	logger.WithField("exit_code", res.ExitCode).Debug("Engine finished")

	return res, nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}

	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return string(b.buf)
}
