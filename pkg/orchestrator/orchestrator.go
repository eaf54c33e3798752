// Package orchestrator sequences a single job run: schedule gate, archive
// lock, pre-script, engine, retention cleanup. Every run ends with the lock
// released and a RunResult describing what happened.
package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/dupjob/pkg/appcontext"
	"github.com/yurykabanov/dupjob/pkg/command"
	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/engine"
	"github.com/yurykabanov/dupjob/pkg/schedule"
)

const DefaultLockTimeout = 10 * time.Minute

type State string

const (
	StateIdle      State = "idle"
	StateGated     State = "gated"
	StateLocked    State = "locked"
	StatePreScript State = "pre_script"
	StateExecuting State = "executing"
	StateCleanup   State = "cleanup"
	StateDone      State = "done"
)

type Locker interface {
	With(ctx context.Context, key string, timeout time.Duration, fn func(context.Context) error) error
}

type Engine interface {
	Run(ctx context.Context, inv command.Invocation) (engine.Result, error)
}

type ScriptRunner interface {
	Run(ctx context.Context, job domain.Job) error
}

type CommandBuilder interface {
	Build(job domain.Job, req command.Request) (command.Invocation, error)
}

type CacheManager interface {
	Dir(archiveName string) string
	Prune(archiveName string, maxAgeDays int, now time.Time) (int, error)
}

type Config struct {
	LockTimeout time.Duration
}

type Request struct {
	command.Request

	// Explicit is set when the operator named the job. Unscheduled jobs only
	// run on explicit requests.
	Explicit bool
}

type Orchestrator struct {
	logger logrus.FieldLogger
	config Config

	locker  Locker
	builder CommandBuilder
	engine  Engine
	scripts ScriptRunner
	cache   CacheManager

	now   func() time.Time
	newId func() string
}

func New(
	logger logrus.FieldLogger,
	config Config,
	locker Locker,
	builder CommandBuilder,
	engine Engine,
	scripts ScriptRunner,
	cache CacheManager,
) *Orchestrator {
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}

	return &Orchestrator{
		logger:  logger,
		config:  config,
		locker:  locker,
		builder: builder,
		engine:  engine,
		scripts: scripts,
		cache:   cache,
		now:     time.Now,
		newId:   uuid.NewString,
	}
}

// run carries the state of one invocation through the state machine.
type run struct {
	job    domain.Job
	req    Request
	result domain.RunResult
	state  State
	logger logrus.FieldLogger
}

func (r *run) enter(state State) {
	r.logger.WithField("state", state).Debug("Run state changed")
	r.state = state
}

func (o *Orchestrator) Run(ctx context.Context, job domain.Job, req Request) domain.RunResult {
	runId := o.newId()

	ctx = appcontext.WithJobName(ctx, job.Name)
	ctx = appcontext.WithAction(ctx, string(req.Action))
	ctx = appcontext.WithRunId(ctx, runId)

	r := &run{
		job: job,
		req: req,
		result: domain.RunResult{
			RunId:     runId,
			Job:       job.Name,
			Action:    req.Action,
			StartedAt: o.now(),
			ExitCode:  -1,
		},
		state:  StateIdle,
		logger: appcontext.LoggerFromContext(o.logger, ctx),
	}

	var err error

	switch req.Action {
	case domain.ActionBackup:
		err = o.backup(ctx, r)
	case domain.ActionRestore:
		err = o.restore(ctx, r)
	case domain.ActionCleanup:
		err = o.cleanup(ctx, r)
	case domain.ActionStatus, domain.ActionContent:
		err = o.inspect(ctx, r)
	default:
		err = &domain.RequestError{Reason: "action " + string(req.Action) + " is not a job run"}
	}

	o.finish(r, err)

	return r.result
}

func (o *Orchestrator) finish(r *run, err error) {
	r.result.FinishedAt = o.now()

	switch {
	case r.result.Status == domain.StatusSkipped:
	case err == nil:
		r.result.Status = domain.StatusSuccess
	case r.result.Status == domain.StatusAborted:
		r.result.Err = err
	default:
		r.result.Status = domain.StatusFailure
		r.result.Err = err
	}

	r.enter(StateDone)

	logger := r.logger.WithFields(logrus.Fields{
		"status":    r.result.Status,
		"exit_code": r.result.ExitCode,
		"duration":  r.result.Duration().String(),
	})

	switch {
	case r.result.Err != nil:
		logger.WithError(r.result.Err).Error("Run failed")
	case r.result.CleanupErr != nil:
		logger.WithError(r.result.CleanupErr).Warn("Run finished, cleanup failed")
	default:
		logger.Info("Run finished")
	}
}

// Due reports whether a backup of job should run for req at now.
func Due(job domain.Job, req Request, now time.Time) bool {
	if req.Force {
		return true
	}
	if job.Schedule == nil {
		return req.Explicit
	}
	return schedule.IsDue(job.Schedule, now)
}

func (o *Orchestrator) backup(ctx context.Context, r *run) error {
	r.enter(StateGated)

	if !Due(r.job, r.req, o.now()) {
		r.logger.Info("Job is not due, skipping")
		r.result.Status = domain.StatusSkipped
		return nil
	}

	return o.locked(ctx, r, func(ctx context.Context) error {
		if err := o.preScript(ctx, r); err != nil {
			return err
		}

		if err := o.execute(ctx, r, r.req.Request); err != nil {
			return err
		}

		if r.job.Retention > 0 {
			r.enter(StateCleanup)

			if _, err := o.run(ctx, r, command.Request{Action: domain.ActionCleanup}); err != nil {
				r.result.CleanupErr = &domain.CleanupError{Err: err}
				return nil
			}

			o.pruneCache(r)
		}

		return nil
	})
}

func (o *Orchestrator) restore(ctx context.Context, r *run) error {
	if r.req.RestorePath == "" {
		r.req.RestorePath = r.job.Source
	}

	if _, err := os.Stat(r.req.RestorePath); err != nil {
		return &domain.RequestError{Reason: "restore path " + r.req.RestorePath + " does not exist"}
	}

	return o.locked(ctx, r, func(ctx context.Context) error {
		return o.execute(ctx, r, r.req.Request)
	})
}

func (o *Orchestrator) cleanup(ctx context.Context, r *run) error {
	return o.locked(ctx, r, func(ctx context.Context) error {
		if err := o.execute(ctx, r, r.req.Request); err != nil {
			return err
		}

		o.pruneCache(r)

		return nil
	})
}

func (o *Orchestrator) inspect(ctx context.Context, r *run) error {
	return o.execute(ctx, r, r.req.Request)
}

func (o *Orchestrator) locked(ctx context.Context, r *run, fn func(context.Context) error) error {
	key := o.cache.Dir(r.job.ArchiveName)

	return o.locker.With(ctx, key, o.config.LockTimeout, func(ctx context.Context) error {
		r.enter(StateLocked)
		return fn(ctx)
	})
}

func (o *Orchestrator) preScript(ctx context.Context, r *run) error {
	if !r.job.HasPreScript() {
		return nil
	}

	r.enter(StatePreScript)

	err := o.scripts.Run(ctx, r.job)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if r.job.AbortOnPreScriptFailure {
		r.result.Status = domain.StatusAborted
		return err
	}

	r.logger.WithError(err).Warn("Pre-script failed, continuing with backup")

	return nil
}

// execute runs the main engine call of the action and records its exit code.
func (o *Orchestrator) execute(ctx context.Context, r *run, req command.Request) error {
	r.enter(StateExecuting)

	code, err := o.run(ctx, r, req)
	r.result.ExitCode = code

	return err
}

func (o *Orchestrator) run(ctx context.Context, r *run, req command.Request) (int, error) {
	inv, err := o.builder.Build(r.job, req)
	if err != nil {
		return -1, err
	}

	res, err := o.engine.Run(ctx, inv)
	if err != nil {
		return res.ExitCode, errors.Wrapf(err, "Unable to run %s", req.Action)
	}

	if res.ExitCode != 0 {
		return res.ExitCode, &domain.EngineError{Action: req.Action, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	return 0, nil
}

func (o *Orchestrator) pruneCache(r *run) {
	if r.job.CacheMaxAge <= 0 {
		return
	}

	r.enter(StateCleanup)

	removed, err := o.cache.Prune(r.job.ArchiveName, r.job.CacheMaxAge, o.now())
	if err != nil {
		if r.result.CleanupErr == nil {
			r.result.CleanupErr = &domain.CleanupError{Err: err}
		}
		return
	}

	r.logger.WithField("removed", removed).Debug("Local archive cache pruned")
}
