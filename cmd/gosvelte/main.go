package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/gosvelte/cmd/gosvelte/check"
	"github.com/walteh/gosvelte/cmd/gosvelte/decompose"
	"github.com/walteh/gosvelte/cmd/gosvelte/mapcmd"
	"github.com/walteh/gosvelte/pkg/logging"
	"gitlab.com/tozd/go/errors"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var (
		verbose bool
		logJSON bool
	)

	rootCmd := &cobra.Command{
		Use:           "gosvelte",
		Short:         "Decompose svelte components into the virtual documents language tooling works on",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as json instead of console text")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		ctx := logging.WithContext(cmd.Context(), os.Stderr, logging.Options{
			Level:     level,
			JSON:      logJSON,
			WithColor: !color.NoColor,
			Caller:    verbose,
		})
		cmd.SetContext(ctx)
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	rootCmd.AddCommand(decompose.NewDecomposeCommand())
	rootCmd.AddCommand(check.NewCheckCommand())
	rootCmd.AddCommand(mapcmd.NewMapCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
