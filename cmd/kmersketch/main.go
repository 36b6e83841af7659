// Kmersketch builds, stores and compares bottom-k k-mer sketches.
//
// Usage:
//
//	kmersketch sketch genome.fa genome.ksig
//	kmersketch compare a.ksig b.ksig
//	kmersketch hash --width 3 ACGTAC
//
// Defaults come from KMERSKETCH_* environment variables (or a .env file)
// and can be overridden with flags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	env, err := loadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	app := &app{env: env}
	root := app.rootCommand()
	err = root.Execute()

	if app.log != nil {
		if err != nil {
			app.log.Errorw("command failed", zap.Error(err))
		}
		// Sync on stderr returns EINVAL on some platforms.
		_ = app.log.Sync()
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err != nil {
		return 1
	}
	return 0
}

// app carries state shared by all subcommands.
type app struct {
	env     envVars
	verbose bool
	log     *zap.SugaredLogger
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "kmersketch",
		Short:         "Sliding-window k-mer hashing and MinHash sketches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.initLogger()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "development logging")

	root.AddCommand(
		a.sketchCommand(),
		a.compareCommand(),
		a.hashCommand(),
	)
	return root
}

func (a *app) initLogger() error {
	var (
		logger *zap.Logger
		err    error
	)
	if a.verbose || a.env.Environment == envDev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = logger.Sugar()
	return nil
}
