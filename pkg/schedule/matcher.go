// Package schedule decides whether a scheduled job is due at a given moment.
//
// A job schedule is a cron expression restricted to its minute and hour
// fields ("30 * * * *" for `minute: 30`). Matching is a single point-in-time
// check; nothing here keeps running between invocations.
package schedule

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/yurykabanov/dupjob/pkg/domain"
)

// Spec renders s as a standard five-field cron expression.
func Spec(s domain.Schedule) string {
	return field(s.Minute) + " " + field(s.Hour) + " * * *"
}

func field(v *int) string {
	if v == nil {
		return "*"
	}
	return strconv.Itoa(*v)
}

// IsDue reports whether a job with schedule s should run at now. Jobs
// without a schedule are never due for unattended runs.
func IsDue(s *domain.Schedule, now time.Time) bool {
	if s == nil {
		return false
	}

	sched, err := compile(*s, now.Location())
	if err != nil {
		// Registry validation keeps fields in range, so this is unreachable for loaded jobs.
		return false
	}

	minute := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, now.Location())

	return sched.Next(minute.Add(-time.Second)).Equal(minute)
}

// Next returns the next moment after now at which s is due.
func Next(s domain.Schedule, now time.Time) (time.Time, error) {
	sched, err := compile(s, now.Location())
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now), nil
}

func compile(s domain.Schedule, loc *time.Location) (*cron.SpecSchedule, error) {
	parsed, err := cron.ParseStandard(Spec(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid schedule %q", Spec(s))
	}

	spec, ok := parsed.(*cron.SpecSchedule)
	if !ok {
		return nil, errors.Errorf("Unexpected schedule type %T", parsed)
	}

	// fields are compared in the caller's clock, not the process zone
	spec.Location = loc

	return spec, nil
}
