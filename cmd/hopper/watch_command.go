package main

import (
	"github.com/spf13/cobra"

	"hopper/internal/session"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var preset string
	var noInput bool

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Watch a directory and encode new videos as they settle",
		Long: `Watch monitors the directory tree for new video files, waits for each
file to stop growing, and queues it for encoding. The process runs until
interrupted; the first interrupt finishes in-flight encodes within the stop
grace, a second forces an immediate exit. While running, space pauses and
resumes dispatch and q requests a graceful stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return session.RunWatch(cmd.Context(), cfg, args[0], session.Options{
				LogLevel:    ctx.logLevel(),
				Interactive: !noInput,
				Preset:      preset,
			})
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Drapto preset profile override")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "Disable the interactive pause and quit keys")
	return cmd
}
