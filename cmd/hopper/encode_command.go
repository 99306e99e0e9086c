package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hopper/internal/session"
)

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var preset string
	var noInput bool

	cmd := &cobra.Command{
		Use:   "encode <path> [path...]",
		Short: "Encode the given files and directories, then exit",
		Long: `Encode resolves each argument to video files (a directory is scanned
recursively), queues them in argument order, and encodes until the queue
drains. While running, space pauses and resumes dispatch and q requests a
graceful stop.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			summary, err := session.RunBatch(cmd.Context(), cfg, args, session.Options{
				LogLevel:    ctx.logLevel(),
				Interactive: !noInput,
				Preset:      preset,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d video(s) in %s\n", summary.Processed, summary.Duration.Round(time.Second))
			if len(summary.Failed) > 0 {
				rows := make([][]string, 0, len(summary.Failed))
				for _, failure := range summary.Failed {
					rows = append(rows, []string{failure.SourcePath, failure.Reason})
				}
				fmt.Fprintf(out, "%d video(s) failed:\n", len(summary.Failed))
				fmt.Fprintln(out, renderTable([]string{"Source", "Reason"}, rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Drapto preset profile override")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "Disable the interactive pause and quit keys")
	return cmd
}
