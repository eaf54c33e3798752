package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestNewRegistry_Defaults(t *testing.T) {
	r, err := NewRegistry("s3://bucket/backups/", []JobConfig{
		{Name: "etc", Source: "/etc"},
	})
	require.NoError(t, err)

	job, err := r.Get("etc")
	require.NoError(t, err)

	assert.Equal(t, "s3://bucket/backups/etc", job.Destination)
	assert.Equal(t, "etc", job.ArchiveName)
	assert.Equal(t, BackupIncremental, job.Type)
	assert.Equal(t, 0, job.Retention)
	assert.False(t, job.Encrypt)
	assert.True(t, job.Compress)
	assert.True(t, job.AbortOnPreScriptFailure)
	assert.Nil(t, job.Schedule)
	assert.False(t, job.HasPreScript())
}

func TestNewRegistry_FullDefinition(t *testing.T) {
	filters := []Filter{
		{Kind: FilterExclude, Pattern: "**"},
		{Kind: FilterInclude, Pattern: "**/audit/**"},
	}

	r, err := NewRegistry("file:///backups", []JobConfig{{
		Name:                    "var_log",
		Source:                  "/var/log",
		Destination:             "sftp://host/var_log",
		ArchiveName:             "logs",
		Retention:               intPtr(3),
		Type:                    "full",
		FullIfOlder:             intPtr(1),
		Schedule:                &ScheduleConfig{Minute: intPtr(30)},
		PreScript:               []string{"/usr/local/bin/prepare", "--fast"},
		PreScriptTimeout:        intPtr(60),
		AbortOnPreScriptFailure: boolPtr(false),
		Encrypt:                 boolPtr(true),
		Compress:                boolPtr(false),
		Filters:                 filters,
		CacheMaxAge:             intPtr(7),
	}})
	require.NoError(t, err)

	job, err := r.Get("var_log")
	require.NoError(t, err)

	assert.Equal(t, "sftp://host/var_log", job.Destination)
	assert.Equal(t, "logs", job.ArchiveName)
	assert.Equal(t, 3, job.Retention)
	assert.Equal(t, BackupFull, job.Type)
	assert.Equal(t, 1, job.FullIfOlder)
	require.NotNil(t, job.Schedule)
	assert.Equal(t, 30, *job.Schedule.Minute)
	assert.Nil(t, job.Schedule.Hour)
	assert.Equal(t, []string{"/usr/local/bin/prepare", "--fast"}, job.PreScript)
	assert.Equal(t, time.Minute, job.PreScriptTimeout)
	assert.False(t, job.AbortOnPreScriptFailure)
	assert.True(t, job.Encrypt)
	assert.False(t, job.Compress)
	assert.Equal(t, filters, job.Filters)
	assert.Equal(t, 7, job.CacheMaxAge)
}

func TestNewRegistry_JobsKeepDeclarationOrder(t *testing.T) {
	r, err := NewRegistry("file:///b", []JobConfig{
		{Name: "zeta", Source: "/z"},
		{Name: "alpha", Source: "/a"},
		{Name: "mid", Source: "/m"},
	})
	require.NoError(t, err)

	var names []string
	for _, j := range r.Jobs() {
		names = append(names, j.Name)
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
	assert.Equal(t, 3, r.Len())
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name   string
		dest   string
		config JobConfig
		field  string
	}{
		{"empty name", "d", JobConfig{Source: "/x"}, "name"},
		{"empty source", "d", JobConfig{Name: "j"}, "source"},
		{"no destination", "", JobConfig{Name: "j", Source: "/x"}, "destination"},
		{"negative retention", "d", JobConfig{Name: "j", Source: "/x", Retention: intPtr(-1)}, "retention"},
		{"bad type", "d", JobConfig{Name: "j", Source: "/x", Type: "differential"}, "type"},
		{"zero fullifolder", "d", JobConfig{Name: "j", Source: "/x", FullIfOlder: intPtr(0)}, "fullifolder"},
		{"minute range", "d", JobConfig{Name: "j", Source: "/x", Schedule: &ScheduleConfig{Minute: intPtr(60)}}, "schedule.minute"},
		{"hour range", "d", JobConfig{Name: "j", Source: "/x", Schedule: &ScheduleConfig{Hour: intPtr(24)}}, "schedule.hour"},
		{"negative hour", "d", JobConfig{Name: "j", Source: "/x", Schedule: &ScheduleConfig{Hour: intPtr(-1)}}, "schedule.hour"},
		{"empty pre_script", "d", JobConfig{Name: "j", Source: "/x", PreScript: []string{}}, "pre_script"},
		{"blank pre_script command", "d", JobConfig{Name: "j", Source: "/x", PreScript: []string{" ", "arg"}}, "pre_script"},
		{"negative pre_script_timeout", "d", JobConfig{Name: "j", Source: "/x", PreScriptTimeout: intPtr(-5)}, "pre_script_timeout"},
		{"archive name with slash", "d", JobConfig{Name: "j", Source: "/x", ArchiveName: "a/b"}, "archive_name"},
		{"archive name dot-dot", "d", JobConfig{Name: "j", Source: "/x", ArchiveName: ".."}, "archive_name"},
		{"name escaping cache dir", "file:///srv/", JobConfig{Name: "../../../etc", Source: "/etc"}, "name"},
		{"name dot", "d", JobConfig{Name: ".", Source: "/x"}, "name"},
		{"empty filter", "d", JobConfig{Name: "j", Source: "/x", Filters: []Filter{{Kind: FilterInclude}}}, "filters[0]"},
		{"negative cache age", "d", JobConfig{Name: "j", Source: "/x", CacheMaxAge: intPtr(-1)}, "cache_max_age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.dest, []JobConfig{tt.config})

			assert.Nil(t, r)

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
			assert.Equal(t, tt.config.Name, cerr.Job)
		})
	}
}

func TestNewRegistry_FailsFastWithoutPartialRegistry(t *testing.T) {
	r, err := NewRegistry("d", []JobConfig{
		{Name: "good", Source: "/good"},
		{Name: "bad", Source: "/bad", Retention: intPtr(-1)},
		{Name: "never", Source: ""},
	})

	assert.Nil(t, r)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "bad", cerr.Job)
}

func TestNewRegistry_ArchiveNameOverridesUnsafeName(t *testing.T) {
	r, err := NewRegistry("d", []JobConfig{
		{Name: "web/logs", Source: "/var/log", ArchiveName: "web_logs"},
	})
	require.NoError(t, err)

	job, err := r.Get("web/logs")
	require.NoError(t, err)
	assert.Equal(t, "web_logs", job.ArchiveName)
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry("d", []JobConfig{
		{Name: "etc", Source: "/etc"},
		{Name: "etc", Source: "/etc2"},
	})

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "name", cerr.Field)
}

func TestRegistry_GetNotFound(t *testing.T) {
	r, err := NewRegistry("d", nil)
	require.NoError(t, err)

	_, err = r.Get("missing")

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "missing", nerr.Name)
}

func TestRegistry_JobsAreCopies(t *testing.T) {
	r, err := NewRegistry("d", []JobConfig{{
		Name:    "etc",
		Source:  "/etc",
		Filters: []Filter{{Kind: FilterExclude, Pattern: "*.tmp"}},
	}})
	require.NoError(t, err)

	job, _ := r.Get("etc")
	job.Source = "/changed"

	again, _ := r.Get("etc")
	assert.Equal(t, "/etc", again.Source)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("backup")
	require.NoError(t, err)
	assert.Equal(t, ActionBackup, a)
	assert.True(t, a.Mutating())
	assert.False(t, ActionStatus.Mutating())
	assert.False(t, ActionContent.Mutating())

	_, err = ParseAction("explode")
	var rerr *RequestError
	assert.ErrorAs(t, err, &rerr)
}
