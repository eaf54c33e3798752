package domain

import "time"

type BackupType string

const (
	BackupFull        BackupType = "full"
	BackupIncremental BackupType = "incremental"
)

type FilterKind string

const (
	FilterInclude FilterKind = "include"
	FilterExclude FilterKind = "exclude"
)

// Filter is a single glob rule. Filters are kept in declaration order and
// handed to the engine unchanged, since the engine evaluates them as layers.
type Filter struct {
	Kind    FilterKind
	Pattern string
}

// Schedule restricts unattended runs to matching minute/hour. A nil field
// matches every value of that unit.
type Schedule struct {
	Minute *int
	Hour   *int
}

// Job is a validated backup job. Jobs are values: the registry hands out
// copies and nothing mutates them after loading.
type Job struct {
	Name        string
	Source      string
	Destination string

	// ArchiveName is passed to the engine as --name and selects the local
	// archive-cache directory. Defaults to Name.
	ArchiveName string

	Retention   int
	Type        BackupType
	FullIfOlder int // days, 0 when not set

	Schedule *Schedule

	PreScript               []string
	PreScriptTimeout        time.Duration
	AbortOnPreScriptFailure bool

	Encrypt  bool
	Compress bool

	Filters []Filter

	CacheMaxAge int // days, 0 disables local cache pruning
}

func (j Job) HasPreScript() bool {
	return len(j.PreScript) > 0
}

// JobConfig is the declarative form of a job before validation. Pointer
// fields distinguish "absent" from zero values so defaults can be applied.
type JobConfig struct {
	Name        string
	Source      string
	Destination string
	ArchiveName string
	Retention   *int
	Type        string
	FullIfOlder *int
	Schedule    *ScheduleConfig

	PreScript               []string
	PreScriptTimeout        *int // seconds
	AbortOnPreScriptFailure *bool

	Encrypt  *bool
	Compress *bool

	Filters []Filter

	CacheMaxAge *int
}

type ScheduleConfig struct {
	Minute *int
	Hour   *int
}
