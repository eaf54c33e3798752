package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/yurykabanov/dupjob/internal/configfx"
	"github.com/yurykabanov/dupjob/internal/domainfx"
	"github.com/yurykabanov/dupjob/internal/loggerfx"
	"github.com/yurykabanov/dupjob/internal/metricsfx"
	"github.com/yurykabanov/dupjob/pkg/cli"
	"github.com/yurykabanov/dupjob/pkg/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := loggerfx.Logger()

	flags := configfx.PFlags()

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return cli.ExitOK
		}

		fmt.Fprintln(os.Stderr, err)
		flags.Usage()

		return cli.ExitUsage
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return cli.ExitUsage
	}

	var (
		runner *cli.Runner
		opts   cli.Options
	)

	app := fx.New(
		fx.Logger(loggerfx.FxPrinter{Logger: logger}),

		modules(flags),

		fx.Populate(&runner, &opts),
	)

	if err := app.Err(); err != nil {
		report.New(os.Stderr).Error(err)

		// everything is built from configuration at this point
		if code := cli.ExitCode(err); code != cli.ExitRuntime {
			return code
		}
		return cli.ExitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runner.Run(ctx, opts)
}

func modules(flags *pflag.FlagSet) fx.Option {
	return fx.Options(
		fx.Supply(flags),

		loggerfx.Module,
		configfx.Module,
		metricsfx.Module,
		domainfx.Module,
	)
}
