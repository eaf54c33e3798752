// Package report prints job listings and run outcomes for the operator.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/schedule"
)

var (
	successColor = color.New(color.FgGreen)
	skippedColor = color.New(color.FgCyan)
	abortedColor = color.New(color.FgYellow)
	failureColor = color.New(color.FgRed, color.Bold)
	noticeColor  = color.New(color.FgYellow)
)

type Reporter struct {
	out io.Writer
}

func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

type jobView struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	ArchiveName string `yaml:"archive_name"`
	Type        string `yaml:"type"`
	Retention   int    `yaml:"retention"`
	FullIfOlder int    `yaml:"fullifolder,omitempty"`

	Schedule string `yaml:"schedule,omitempty"`
	NextRun  string `yaml:"next_run,omitempty"`

	PreScript               []string `yaml:"pre_script,omitempty,flow"`
	PreScriptTimeout        string   `yaml:"pre_script_timeout,omitempty"`
	AbortOnPreScriptFailure *bool    `yaml:"abort_on_pre_script_failure,omitempty"`

	Encrypt  bool `yaml:"encrypt"`
	Compress bool `yaml:"compress"`

	Filters []map[string]string `yaml:"filters,omitempty"`

	CacheMaxAge int `yaml:"cache_max_age,omitempty"`
}

func newJobView(job domain.Job, now time.Time) jobView {
	v := jobView{
		Source:      job.Source,
		Destination: job.Destination,
		ArchiveName: job.ArchiveName,
		Type:        string(job.Type),
		Retention:   job.Retention,
		FullIfOlder: job.FullIfOlder,
		Encrypt:     job.Encrypt,
		Compress:    job.Compress,
		CacheMaxAge: job.CacheMaxAge,
	}

	if job.Schedule != nil {
		v.Schedule = schedule.Spec(*job.Schedule)
		if next, err := schedule.Next(*job.Schedule, now); err == nil {
			v.NextRun = next.Format(time.RFC3339)
		}
	}

	if job.HasPreScript() {
		abort := job.AbortOnPreScriptFailure
		v.PreScript = job.PreScript
		v.AbortOnPreScriptFailure = &abort
		if job.PreScriptTimeout > 0 {
			v.PreScriptTimeout = job.PreScriptTimeout.String()
		}
	}

	for _, f := range job.Filters {
		v.Filters = append(v.Filters, map[string]string{string(f.Kind): f.Pattern})
	}

	return v
}

// Jobs prints jobs as a YAML mapping keyed by job name, in the given order.
func (r *Reporter) Jobs(jobs []domain.Job, now time.Time) error {
	root := &yaml.Node{Kind: yaml.MappingNode}

	for _, job := range jobs {
		var value yaml.Node
		if err := value.Encode(newJobView(job, now)); err != nil {
			return errors.Wrapf(err, "Unable to render job %s", job.Name)
		}

		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: job.Name},
			&value,
		)
	}

	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)

	if err := enc.Encode(root); err != nil {
		return errors.Wrap(err, "Unable to render jobs")
	}

	return enc.Close()
}

// Result prints a one-line outcome of a run, followed by the failure
// details if there are any.
func (r *Reporter) Result(res domain.RunResult) {
	status := statusColor(res.Status).Sprint(res.Status)

	line := fmt.Sprintf("%s %s: %s", res.Job, res.Action, status)
	if res.ExitCode >= 0 {
		line += fmt.Sprintf(" (exit %d, %s)", res.ExitCode, res.Duration().Round(time.Second))
	}

	fmt.Fprintln(r.out, line)

	if res.Err != nil {
		failureColor.Fprintf(r.out, "  error: %v\n", res.Err)
	}

	if res.CleanupErr != nil {
		noticeColor.Fprintf(r.out, "  warning: %v\n", res.CleanupErr)
	}
}

// Error prints a failure that happened before any job could run.
func (r *Reporter) Error(err error) {
	failureColor.Fprintf(r.out, "error: %v\n", err)
}

func statusColor(s domain.RunStatus) *color.Color {
	switch s {
	case domain.StatusSuccess:
		return successColor
	case domain.StatusSkipped:
		return skippedColor
	case domain.StatusAborted:
		return abortedColor
	default:
		return failureColor
	}
}
