package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/portapak/pkg/manifest"
	"github.com/walteh/portapak/pkg/trace"
	"github.com/walteh/portapak/pkg/uilog"
	"gitlab.com/tozd/go/errors"
)

// NewClassifyCmd creates the classify command
func NewClassifyCmd() *cobra.Command {
	var (
		output      string
		appName     string
		ignoreGlobs []string
	)

	cmd := &cobra.Command{
		Use:   "classify <trace.xml>",
		Short: "Convert a traced-data XML export into a capture manifest",
		Long: `Classify walks a traced-data XML export (paths, registry keys, service
and task names observed during an installation), reduces the noisy path list
to a minimal set of directories and files, and writes a capture manifest
ready for 'portapak package'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "classify").Logger().WithContext(ctx)
			sink := uilog.New(os.Stdout, *zerolog.Ctx(ctx))

			m, err := trace.ClassifyFile(ctx, args[0], trace.Options{
				AppName:     appName,
				Roots:       trace.DefaultRoots(),
				IgnoreGlobs: ignoreGlobs,
				Sink:        sink,
			})
			if err != nil {
				return errors.Errorf("classifying trace: %w", err)
			}

			if err := manifest.Save(ctx, output, m); err != nil {
				return errors.Errorf("writing manifest: %w", err)
			}

			sink.Line("wrote manifest for %q to %s", m.AppName, output)
			sink.Line("%d directories, %d files, %d registry keys, %d services, %d tasks",
				len(m.Directories), len(m.Files), len(m.RegistryKeys), len(m.Services), len(m.ScheduledTasks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output manifest path (required)")
	cmd.Flags().StringVar(&appName, "app-name", "", "override app name (defaults to the trace file name)")
	cmd.Flags().StringArrayVar(&ignoreGlobs, "ignore", nil, "glob pattern for trace paths to ignore (repeatable)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
