package domain

import (
	"fmt"
	"strings"
	"time"
)

type Action string

const (
	ActionList    Action = "list"
	ActionRestore Action = "restore"
	ActionBackup  Action = "backup"
	ActionStatus  Action = "status"
	ActionContent Action = "content"
	ActionCleanup Action = "cleanup"
)

var Actions = []Action{ActionList, ActionRestore, ActionBackup, ActionStatus, ActionContent, ActionCleanup}

func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}

	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = string(a)
	}

	return "", &RequestError{Reason: fmt.Sprintf("unknown action %q, expected one of {%s}", s, strings.Join(names, ","))}
}

// Mutating reports whether the action changes archive state and therefore
// needs the archive-cache lock.
func (a Action) Mutating() bool {
	return a == ActionBackup || a == ActionRestore || a == ActionCleanup
}

type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusFailure RunStatus = "failure"
	StatusAborted RunStatus = "aborted"
	StatusSkipped RunStatus = "skipped"
)

// RunResult describes one orchestrated invocation. It lives only as long as
// the process; backup history itself is kept by the engine.
type RunResult struct {
	RunId  string
	Job    string
	Action Action

	StartedAt  time.Time
	FinishedAt time.Time

	Status   RunStatus
	ExitCode int // engine exit code, -1 when the engine was not invoked

	Err        error
	CleanupErr error
}

func (r RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
