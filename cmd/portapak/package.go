package main

import (
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/portapak/pkg/execx"
	"github.com/walteh/portapak/pkg/manifest"
	"github.com/walteh/portapak/pkg/packager"
	"github.com/walteh/portapak/pkg/uilog"
	"gitlab.com/tozd/go/errors"
)

// NewPackageCmd creates the package command
func NewPackageCmd() *cobra.Command {
	var (
		output string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "package <manifest>",
		Short: "Execute a capture manifest into a portable package directory",
		Long: `Package reads a capture manifest (JSON, YAML or HCL), validates every
declared source path, and captures each entry: directory trees are mirrored
with robocopy, registry keys exported with reg.exe, service and scheduled
task definitions snapshotted with sc.exe and schtasks. With --dry-run every
intended command is logged and nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "package").Logger().WithContext(ctx)
			logger := zerolog.Ctx(ctx)
			sink := uilog.New(os.Stdout, *logger)

			m, err := manifest.Load(ctx, args[0])
			if err != nil {
				return errors.Errorf("loading manifest: %w", err)
			}

			runner := execx.NewRunner(sink)
			p := packager.New(sink, runner)

			result, err := p.Run(ctx, m, output, dryRun)
			if err != nil {
				var cmdErr *execx.ExternalCommandError
				if errors.As(err, &cmdErr) {
					// The captured tool output is frequently the only
					// actionable detail; keep it available at debug level.
					logger.Debug().Msg(cmdErr.Diagnostic())
				}
				return errors.Errorf("packaging: %w", err)
			}

			renderSummary(result, dryRun)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination folder for the portable package (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log intended commands without copying or exporting")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func renderSummary(result *packager.Result, dryRun bool) {
	header := "Captured"
	if dryRun {
		header = "Would capture"
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Category", header},
		{"Directories", strconv.Itoa(result.Directories)},
		{"Files", strconv.Itoa(result.Files)},
		{"Registry keys", strconv.Itoa(result.RegistryKeys)},
		{"Services", strconv.Itoa(result.Services)},
		{"Scheduled tasks", strconv.Itoa(result.ScheduledTasks)},
		{"Shortcuts", strconv.Itoa(result.Shortcuts)},
	}).Render()
	pterm.Info.Printfln("portable package at %s", result.OutputDir)
}
