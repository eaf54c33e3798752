package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultBackupType              = BackupIncremental
	defaultEncrypt                 = false
	defaultCompress                = true
	defaultAbortOnPreScriptFailure = true
)

// Registry is the validated, read-only set of jobs loaded at startup.
type Registry struct {
	jobs  map[string]Job
	order []string
}

// NewRegistry validates every job config in order and stops at the first
// violation; no partial registry is ever returned.
func NewRegistry(destination string, configs []JobConfig) (*Registry, error) {
	r := &Registry{
		jobs:  make(map[string]Job, len(configs)),
		order: make([]string, 0, len(configs)),
	}

	for _, c := range configs {
		if _, ok := r.jobs[c.Name]; ok {
			return nil, &ConfigError{Job: c.Name, Field: "name", Reason: "duplicate job name"}
		}

		job, err := newJob(destination, c)
		if err != nil {
			return nil, err
		}

		r.jobs[job.Name] = job
		r.order = append(r.order, job.Name)
	}

	return r, nil
}

func (r *Registry) Get(name string) (Job, error) {
	job, ok := r.jobs[name]
	if !ok {
		return Job{}, &NotFoundError{Name: name}
	}
	return job, nil
}

// Jobs returns all jobs in declaration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.jobs[name])
	}
	return jobs
}

func (r *Registry) Len() int {
	return len(r.order)
}

func newJob(destination string, c JobConfig) (Job, error) {
	fail := func(field, reason string, args ...interface{}) (Job, error) {
		return Job{}, &ConfigError{Job: c.Name, Field: field, Reason: fmt.Sprintf(reason, args...)}
	}

	if strings.TrimSpace(c.Name) == "" {
		return fail("name", "must not be empty")
	}

	if strings.TrimSpace(c.Source) == "" {
		return fail("source", "must not be empty")
	}

	job := Job{
		Name:                    c.Name,
		Source:                  c.Source,
		ArchiveName:             c.Name,
		Type:                    defaultBackupType,
		Encrypt:                 boolOr(c.Encrypt, defaultEncrypt),
		Compress:                boolOr(c.Compress, defaultCompress),
		AbortOnPreScriptFailure: boolOr(c.AbortOnPreScriptFailure, defaultAbortOnPreScriptFailure),
		Filters:                 append([]Filter(nil), c.Filters...),
	}

	switch {
	case c.Destination != "":
		job.Destination = c.Destination
	case destination != "":
		job.Destination = strings.TrimRight(destination, "/") + "/" + c.Name
	default:
		return fail("destination", "no job destination and no global destination configured")
	}

	if c.ArchiveName != "" {
		if !validArchiveName(c.ArchiveName) {
			return fail("archive_name", "must be a single path element, got %q", c.ArchiveName)
		}
		job.ArchiveName = c.ArchiveName
	} else if !validArchiveName(c.Name) {
		// the name doubles as the archive name and selects the cache directory
		return fail("name", "must be a single path element or archive_name must be set, got %q", c.Name)
	}

	if c.Retention != nil {
		if *c.Retention < 0 {
			return fail("retention", "must be >= 0, got %d", *c.Retention)
		}
		job.Retention = *c.Retention
	}

	switch BackupType(c.Type) {
	case "":
	case BackupFull, BackupIncremental:
		job.Type = BackupType(c.Type)
	default:
		return fail("type", "must be %q or %q, got %q", BackupFull, BackupIncremental, c.Type)
	}

	if c.FullIfOlder != nil {
		if *c.FullIfOlder < 1 {
			return fail("fullifolder", "must be >= 1, got %d", *c.FullIfOlder)
		}
		job.FullIfOlder = *c.FullIfOlder
	}

	if c.Schedule != nil {
		s := &Schedule{}

		if m := c.Schedule.Minute; m != nil {
			if *m < 0 || *m > 59 {
				return fail("schedule.minute", "must be within [0, 59], got %d", *m)
			}
			v := *m
			s.Minute = &v
		}

		if h := c.Schedule.Hour; h != nil {
			if *h < 0 || *h > 23 {
				return fail("schedule.hour", "must be within [0, 23], got %d", *h)
			}
			v := *h
			s.Hour = &v
		}

		job.Schedule = s
	}

	if c.PreScript != nil {
		if len(c.PreScript) == 0 || strings.TrimSpace(c.PreScript[0]) == "" {
			return fail("pre_script", "must name a command")
		}
		job.PreScript = append([]string(nil), c.PreScript...)
	}

	if c.PreScriptTimeout != nil {
		if *c.PreScriptTimeout < 0 {
			return fail("pre_script_timeout", "must be >= 0, got %d", *c.PreScriptTimeout)
		}
		job.PreScriptTimeout = time.Duration(*c.PreScriptTimeout) * time.Second
	}

	for i, f := range job.Filters {
		if f.Kind != FilterInclude && f.Kind != FilterExclude {
			return fail(fmt.Sprintf("filters[%d]", i), "unknown filter kind %q", f.Kind)
		}
		if f.Pattern == "" {
			return fail(fmt.Sprintf("filters[%d]", i), "empty %s pattern", f.Kind)
		}
	}

	if c.CacheMaxAge != nil {
		if *c.CacheMaxAge < 0 {
			return fail("cache_max_age", "must be >= 0, got %d", *c.CacheMaxAge)
		}
		job.CacheMaxAge = *c.CacheMaxAge
	}

	return job, nil
}

func validArchiveName(name string) bool {
	return name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
