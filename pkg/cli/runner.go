// Package cli dispatches one operator request to the jobs it names and
// turns the outcome into a process exit status.
package cli

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/dupjob/pkg/command"
	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/engine"
	"github.com/yurykabanov/dupjob/pkg/orchestrator"
	"github.com/yurykabanov/dupjob/pkg/timespec"
)

type Options struct {
	Action string

	Job string
	All bool

	RestorePath   string
	PathToRestore string
	Time          string

	Progress bool
	Force    bool

	Priority engine.Priority
}

// Validate checks the combination of flags before anything is loaded.
func (o Options) Validate() error {
	action, err := domain.ParseAction(o.Action)
	if err != nil {
		return err
	}

	if err := o.Priority.Validate(); err != nil {
		return err
	}

	if action == domain.ActionList {
		if o.All && o.Job != "" {
			return &domain.RequestError{Reason: "--job and --all are mutually exclusive"}
		}
		return nil
	}

	switch {
	case o.Job == "" && !o.All:
		return &domain.RequestError{Reason: "either --job or --all is required for " + o.Action}
	case o.Job != "" && o.All:
		return &domain.RequestError{Reason: "--job and --all are mutually exclusive"}
	case o.All && action == domain.ActionRestore:
		return &domain.RequestError{Reason: "restore is not allowed with --all"}
	}

	return nil
}

type JobRunner interface {
	Run(ctx context.Context, job domain.Job, req orchestrator.Request) domain.RunResult
}

type Reporter interface {
	Jobs(jobs []domain.Job, now time.Time) error
	Result(res domain.RunResult)
	Error(err error)
}

type MetricsWriter interface {
	Write(res domain.RunResult) error
}

type Runner struct {
	logger logrus.FieldLogger

	registry *domain.Registry
	jobs     JobRunner
	reporter Reporter
	metrics  MetricsWriter

	now func() time.Time
}

func NewRunner(
	logger logrus.FieldLogger,
	registry *domain.Registry,
	jobs JobRunner,
	reporter Reporter,
	metrics MetricsWriter,
) *Runner {
	return &Runner{
		logger:   logger,
		registry: registry,
		jobs:     jobs,
		reporter: reporter,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Run serves opts and returns the exit status. With --all every job runs,
// sequentially, and the first non-zero status is returned.
func (r *Runner) Run(ctx context.Context, opts Options) int {
	if err := opts.Validate(); err != nil {
		return r.fail(err)
	}

	action, _ := domain.ParseAction(opts.Action)

	jobs, err := r.selectJobs(opts)
	if err != nil {
		return r.fail(err)
	}

	if action == domain.ActionList {
		if err := r.reporter.Jobs(jobs, r.now()); err != nil {
			return r.fail(err)
		}
		return ExitOK
	}

	req, err := r.request(action, opts)
	if err != nil {
		return r.fail(err)
	}

	code := ExitOK

	for _, job := range jobs {
		if ctx.Err() != nil {
			r.logger.WithError(ctx.Err()).Warn("Interrupted, remaining jobs are not started")
			if code == ExitOK {
				code = ExitRuntime
			}
			break
		}

		res := r.jobs.Run(ctx, job, req)

		r.reporter.Result(res)

		if err := r.metrics.Write(res); err != nil {
			r.logger.WithError(err).WithField("job", job.Name).Warn("Unable to write run metrics")
		}

		if c := ResultCode(res); code == ExitOK {
			code = c
		}
	}

	return code
}

func (r *Runner) selectJobs(opts Options) ([]domain.Job, error) {
	if opts.Job == "" {
		return r.registry.Jobs(), nil
	}

	job, err := r.registry.Get(opts.Job)
	if err != nil {
		return nil, err
	}

	return []domain.Job{job}, nil
}

func (r *Runner) request(action domain.Action, opts Options) (orchestrator.Request, error) {
	req := orchestrator.Request{
		Request: command.Request{
			Action:        action,
			RestorePath:   opts.RestorePath,
			PathToRestore: opts.PathToRestore,
			Progress:      opts.Progress,
			Force:         opts.Force,
		},
		Explicit: opts.Job != "",
	}

	if opts.Time != "" {
		t, err := timespec.Parse(opts.Time, r.now())
		if err != nil {
			return req, err
		}
		req.Time = &t
	}

	return req, nil
}

func (r *Runner) fail(err error) int {
	r.reporter.Error(err)
	return ExitCode(err)
}
