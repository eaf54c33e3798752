package configfx

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yurykabanov/dupjob/pkg/cli"
	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/engine"
)

// OptionsProvider builds the operator request from the bound flags. The
// action is the single positional argument.
func OptionsProvider(fs *pflag.FlagSet, v *viper.Viper) (cli.Options, error) {
	if fs.NArg() != 1 {
		return cli.Options{}, &domain.RequestError{Reason: "exactly one action is required"}
	}

	return cli.Options{
		Action: fs.Arg(0),

		Job: v.GetString("job"),
		All: v.GetBool("all"),

		RestorePath:   v.GetString("restore-path"),
		PathToRestore: v.GetString("path-to-restore"),
		Time:          v.GetString("time"),

		Progress: v.GetBool("progress"),
		Force:    v.GetBool("force"),

		Priority: engine.Priority{
			Nice:    v.GetInt("nice"),
			IOClass: v.GetInt("ionice-class"),
			IOLevel: v.GetInt("ionice-level"),
		},
	}, nil
}
