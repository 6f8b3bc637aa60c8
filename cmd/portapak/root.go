package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Flags
	debug bool
)

// NewRootCmd creates the portapak command tree
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portapak",
		Short: "Capture an installed program's footprint into a portable package",
		Long: `portapak collects a program's files, data directories, registry keys,
services and scheduled tasks into a self-contained folder that can be moved
to another machine, and can infer what to collect from a traced-data XML
export.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewPackageCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}
