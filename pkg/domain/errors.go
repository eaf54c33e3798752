package domain

import (
	"fmt"
	"time"
)

// ConfigError reports an invalid job definition. Job is empty for global settings.
type ConfigError struct {
	Job    string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Job == "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config: job %q: %s: %s", e.Job, e.Field, e.Reason)
}

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %q not found", e.Name)
}

type LockTimeoutError struct {
	Key     string
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("unable to lock %s within %s: another run holds it", e.Key, e.Timeout)
}

// PreScriptError is a pre-script that could not be started or exited non-zero.
// ExitCode is -1 when the script never ran to completion.
type PreScriptError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *PreScriptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pre-script %s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("pre-script %s exited with code %d", e.Command, e.ExitCode)
}

func (e *PreScriptError) Unwrap() error {
	return e.Err
}

type EngineError struct {
	Action   Action
	ExitCode int
	Stderr   string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s exited with code %d", e.Action, e.ExitCode)
}

// CleanupError is a failed retention or cache cleanup. It never invalidates
// the backup that preceded it.
type CleanupError struct {
	Err error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed: %v", e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// RequestError is an operator request that cannot be served as given.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return e.Reason
}
