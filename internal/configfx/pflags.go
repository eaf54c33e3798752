package configfx

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/yurykabanov/dupjob/pkg/engine"
)

const usageHeader = `Usage: dupjob [flags] {list,restore,backup,status,content,cleanup}

Flags:
`

func PFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	fs.SortFlags = false

	fs.Usage = func() {
		os.Stderr.WriteString(usageHeader + fs.FlagUsages())
	}

	// Config file flag
	fs.StringP("config", "c", "", "Config file")

	fs.String("job", "", "Job to run")
	fs.BoolP("all", "a", false, "Run every job")

	fs.String("restore-path", "", "Directory to restore into (defaults to the job source)")
	fs.String("path-to-restore", "", "Relative path of a single file or directory to restore")
	fs.StringP("time", "t", "", "Point in time: ISO 8601, interval like 3D or 1h30m, or a date")

	fs.Int("nice", engine.DefaultNice, "CPU priority of the engine, -20..19")
	fs.Int("ionice-class", engine.DefaultIOClass, "I/O scheduling class of the engine, 1..3")
	fs.Int("ionice-level", engine.DefaultIOLevel, "I/O priority level of the engine, 0..7")

	fs.Bool("progress", false, "Show engine progress")
	fs.Bool("force", false, "Ignore the schedule on backup, overwrite files on restore")

	return fs
}
