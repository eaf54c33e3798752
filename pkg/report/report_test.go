package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yurykabanov/dupjob/pkg/domain"
)

func init() {
	color.NoColor = true
}

func intPtr(v int) *int { return &v }

func TestReporter_Jobs(t *testing.T) {
	var buf bytes.Buffer

	jobs := []domain.Job{
		{
			Name:        "var_log",
			Source:      "/var/log",
			Destination: "s3://bucket/var_log",
			ArchiveName: "var_log",
			Retention:   4,
			Type:        domain.BackupIncremental,
			FullIfOlder: 1,
			Schedule:    &domain.Schedule{Minute: intPtr(30)},
			Compress:    true,
			Filters: []domain.Filter{
				{Kind: domain.FilterExclude, Pattern: "**"},
				{Kind: domain.FilterInclude, Pattern: "**/audit/**"},
			},
		},
		{
			Name:                    "etc",
			Source:                  "/etc",
			Destination:             "s3://bucket/etc",
			ArchiveName:             "etc",
			Type:                    domain.BackupFull,
			PreScript:               []string{"/usr/local/bin/snapshot", "--quiet"},
			PreScriptTimeout:        time.Minute,
			AbortOnPreScriptFailure: true,
			Encrypt:                 true,
		},
	}

	now := time.Date(2024, 6, 1, 14, 31, 0, 0, time.UTC)

	require.NoError(t, New(&buf).Jobs(jobs, now))

	out := buf.String()
	assert.Less(t, strings.Index(out, "var_log:"), strings.Index(out, "etc:"))

	var listed map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &listed))
	require.Len(t, listed, 2)

	varLog := listed["var_log"]
	assert.Equal(t, "/var/log", varLog["source"])
	assert.Equal(t, "s3://bucket/var_log", varLog["destination"])
	assert.Equal(t, "incremental", varLog["type"])
	assert.Equal(t, 4, varLog["retention"])
	assert.Equal(t, 1, varLog["fullifolder"])
	assert.Equal(t, "30 * * * *", varLog["schedule"])
	assert.Equal(t, "2024-06-01T15:30:00Z", fmt.Sprint(varLog["next_run"]))
	assert.Equal(t, false, varLog["encrypt"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"exclude": "**"},
		map[string]interface{}{"include": "**/audit/**"},
	}, varLog["filters"])
	assert.NotContains(t, varLog, "pre_script")

	etc := listed["etc"]
	assert.Equal(t, []interface{}{"/usr/local/bin/snapshot", "--quiet"}, etc["pre_script"])
	assert.Equal(t, "1m0s", etc["pre_script_timeout"])
	assert.Equal(t, true, etc["abort_on_pre_script_failure"])
	assert.Equal(t, true, etc["encrypt"])
	assert.NotContains(t, etc, "schedule")
	assert.NotContains(t, etc, "filters")
}

func TestReporter_Jobs_Empty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, New(&buf).Jobs(nil, time.Now()))

	var listed map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &listed))
	assert.Empty(t, listed)
}

func TestReporter_Result(t *testing.T) {
	started := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		result domain.RunResult
		output string
	}{
		{
			name: "success",
			result: domain.RunResult{
				Job: "var_log", Action: domain.ActionBackup, Status: domain.StatusSuccess,
				StartedAt: started, FinishedAt: started.Add(42 * time.Second),
			},
			output: "var_log backup: success (exit 0, 42s)\n",
		},
		{
			name: "skipped",
			result: domain.RunResult{
				Job: "var_log", Action: domain.ActionBackup, Status: domain.StatusSkipped, ExitCode: -1,
			},
			output: "var_log backup: skipped\n",
		},
		{
			name: "aborted",
			result: domain.RunResult{
				Job: "mysql", Action: domain.ActionBackup, Status: domain.StatusAborted, ExitCode: -1,
				Err: &domain.PreScriptError{Command: "dump", ExitCode: 1},
			},
			output: "mysql backup: aborted\n  error: pre-script dump exited with code 1\n",
		},
		{
			name: "cleanup warning",
			result: domain.RunResult{
				Job: "var_log", Action: domain.ActionBackup, Status: domain.StatusSuccess,
				StartedAt: started, FinishedAt: started,
				CleanupErr: &domain.CleanupError{Err: errors.New("disk full")},
			},
			output: "var_log backup: success (exit 0, 0s)\n  warning: cleanup failed: disk full\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			New(&buf).Result(tt.result)

			assert.Equal(t, tt.output, buf.String())
		})
	}
}

func TestReporter_Error(t *testing.T) {
	var buf bytes.Buffer

	New(&buf).Error(&domain.NotFoundError{Name: "nope"})

	assert.Equal(t, "error: job \"nope\" not found\n", buf.String())
}
