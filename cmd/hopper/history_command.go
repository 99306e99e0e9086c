package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"hopper/internal/history"
	"hopper/internal/media"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent encode sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled in the configuration")
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if failedOnly {
				outcomes, err := store.RecentOutcomes(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("load outcomes: %w", err)
				}
				fmt.Fprintln(out, renderFailedOutcomes(outcomes))
				return nil
			}

			sessions, err := store.RecentSessions(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load sessions: %w", err)
			}
			fmt.Fprintln(out, renderSessions(sessions))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of rows to show")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Show failed videos instead of sessions")
	return cmd
}

func renderSessions(sessions []history.Session) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		finished := "running"
		if s.FinishedAt != nil {
			finished = s.FinishedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			s.RunID,
			s.Mode,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			finished,
			strconv.Itoa(s.Processed),
			strconv.Itoa(s.Failed),
		})
	}
	return renderTable([]string{"Run", "Mode", "Started", "Finished", "Processed", "Failed"}, rows, 5, 6)
}

func renderFailedOutcomes(outcomes []history.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status != media.StatusFailed {
			continue
		}
		rows = append(rows, []string{
			o.Title,
			o.SourcePath,
			o.ErrorMessage,
			formatOutcomeTime(o.FinishedAt),
		})
	}
	return renderTable([]string{"Title", "Source", "Reason", "Finished"}, rows)
}

func formatOutcomeTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format("2006-01-02 15:04")
}
