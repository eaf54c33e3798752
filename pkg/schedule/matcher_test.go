package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurykabanov/dupjob/pkg/domain"
)

func intPtr(v int) *int { return &v }

func at(hour, minute, second int) time.Time {
	return time.Date(2024, 6, 1, hour, minute, second, 0, time.UTC)
}

func TestSpec(t *testing.T) {
	assert.Equal(t, "* * * * *", Spec(domain.Schedule{}))
	assert.Equal(t, "30 * * * *", Spec(domain.Schedule{Minute: intPtr(30)}))
	assert.Equal(t, "* 3 * * *", Spec(domain.Schedule{Hour: intPtr(3)}))
	assert.Equal(t, "0 3 * * *", Spec(domain.Schedule{Minute: intPtr(0), Hour: intPtr(3)}))
}

func TestIsDue_MinuteOnly(t *testing.T) {
	s := &domain.Schedule{Minute: intPtr(30)}

	assert.True(t, IsDue(s, at(14, 30, 0)))
	assert.True(t, IsDue(s, at(14, 30, 59)))
	assert.True(t, IsDue(s, at(2, 30, 12)))
	assert.False(t, IsDue(s, at(14, 31, 0)))
	assert.False(t, IsDue(s, at(14, 29, 59)))
}

func TestIsDue_HourOnly(t *testing.T) {
	s := &domain.Schedule{Hour: intPtr(3)}

	assert.True(t, IsDue(s, at(3, 0, 0)))
	assert.True(t, IsDue(s, at(3, 59, 0)))
	assert.False(t, IsDue(s, at(4, 0, 0)))
}

func TestIsDue_MinuteAndHour(t *testing.T) {
	s := &domain.Schedule{Minute: intPtr(15), Hour: intPtr(23)}

	assert.True(t, IsDue(s, at(23, 15, 30)))
	assert.False(t, IsDue(s, at(22, 15, 0)))
	assert.False(t, IsDue(s, at(23, 16, 0)))
}

func TestIsDue_EmptyScheduleMatchesEveryMinute(t *testing.T) {
	assert.True(t, IsDue(&domain.Schedule{}, at(7, 42, 3)))
}

func TestIsDue_NoScheduleNeverDue(t *testing.T) {
	assert.False(t, IsDue(nil, at(14, 30, 0)))
}

func TestIsDue_UsesClockOfNow(t *testing.T) {
	s := &domain.Schedule{Minute: intPtr(0), Hour: intPtr(3)}
	tokyo := time.FixedZone("JST", 9*60*60)

	now := time.Date(2024, 6, 1, 3, 0, 0, 0, tokyo)

	assert.True(t, IsDue(s, now))
	assert.False(t, IsDue(s, now.UTC()))
}

func TestIsDue_Idempotent(t *testing.T) {
	s := &domain.Schedule{Minute: intPtr(30)}

	for _, now := range []time.Time{at(14, 30, 0), at(14, 31, 0)} {
		assert.Equal(t, IsDue(s, now), IsDue(s, now))
	}
}

func TestNext(t *testing.T) {
	next, err := Next(domain.Schedule{Minute: intPtr(30)}, at(14, 31, 0))

	require.NoError(t, err)
	assert.True(t, next.Equal(at(15, 30, 0)), "got %s", next)
}
