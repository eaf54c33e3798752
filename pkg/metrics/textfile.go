// Package metrics exports run outcomes as node-exporter textfiles. The
// process is short-lived, so nothing is served: each run rewrites the file
// of its job and action, and the node exporter picks it up from there.
package metrics

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yurykabanov/dupjob/pkg/domain"
)

const namespace = "dupjob"

var labels = []string{"job", "action"}

type TextfileWriter struct {
	dir string
}

func NewTextfileWriter(dir string) *TextfileWriter {
	return &TextfileWriter{dir: dir}
}

func (w *TextfileWriter) Enabled() bool {
	return w.dir != ""
}

// Write records res. Skipped runs leave the previous files untouched, and
// the last-success file is only rewritten by successful runs.
func (w *TextfileWriter) Write(res domain.RunResult) error {
	if !w.Enabled() || res.Status == domain.StatusSkipped {
		return nil
	}

	if err := w.writeLastRun(res); err != nil {
		return err
	}

	if res.Status == domain.StatusSuccess {
		return w.writeLastSuccess(res)
	}

	return nil
}

func (w *TextfileWriter) writeLastRun(res domain.RunResult) error {
	reg := prometheus.NewRegistry()

	timestamp := newGauge(reg, "last_run_timestamp_seconds", "Unix time the last run finished.")
	duration := newGauge(reg, "last_run_duration_seconds", "Duration of the last run.")
	exitCode := newGauge(reg, "last_run_exit_code", "Engine exit code of the last run, -1 when the engine did not run.")
	cleanupFailed := newGauge(reg, "last_run_cleanup_failed", "1 when the cleanup after the last run failed.")

	status := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_status",
		Help:      "Outcome of the last run, 1 for the reported status.",
	}, append(labels, "status"))
	reg.MustRegister(status)

	l := prometheus.Labels{"job": res.Job, "action": string(res.Action)}

	timestamp.With(l).Set(float64(res.FinishedAt.Unix()))
	duration.With(l).Set(res.Duration().Seconds())
	exitCode.With(l).Set(float64(res.ExitCode))
	cleanupFailed.With(l).Set(boolValue(res.CleanupErr != nil))
	status.WithLabelValues(res.Job, string(res.Action), string(res.Status)).Set(1)

	return w.write(reg, res, "")
}

func (w *TextfileWriter) writeLastSuccess(res domain.RunResult) error {
	reg := prometheus.NewRegistry()

	timestamp := newGauge(reg, "last_success_timestamp_seconds", "Unix time the last successful run finished.")
	duration := newGauge(reg, "last_success_duration_seconds", "Duration of the last successful run.")

	l := prometheus.Labels{"job": res.Job, "action": string(res.Action)}

	timestamp.With(l).Set(float64(res.FinishedAt.Unix()))
	duration.With(l).Set(res.Duration().Seconds())

	return w.write(reg, res, "_success")
}

func (w *TextfileWriter) write(reg *prometheus.Registry, res domain.RunResult, suffix string) error {
	path := w.Path(res.Job, res.Action, suffix)

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return errors.Wrapf(err, "Unable to write metrics to %s", path)
	}

	return nil
}

// Path is the textfile for the given job and action.
func (w *TextfileWriter) Path(job string, action domain.Action, suffix string) string {
	return filepath.Join(w.dir, namespace+"_"+job+"_"+string(action)+suffix+".prom")
}

func newGauge(reg *prometheus.Registry, name, help string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	reg.MustRegister(g)

	return g
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
