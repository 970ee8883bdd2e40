package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
	"github.com/at-ishikawa/spellingtrainer/internal/result"
)

func newHistoryCommand() *cobra.Command {
	historyCommand := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the results of finished sessions",
	}

	historyCommand.AddCommand(
		newRepositoryCommand("list", "List the latest finished sessions", func(cmd *cobra.Command, _ *config.Config, repository *persistence.Repository) error {
			return printHistory(cmd.OutOrStdout(), repository.LoadHistory())
		}),
		newRepositoryCommand("stats", "Summarize the finished sessions", func(cmd *cobra.Command, _ *config.Config, repository *persistence.Repository) error {
			return printHistoryStats(cmd.OutOrStdout(), repository.HistoryStats())
		}),
		newRepositoryCommand("clear", "Delete the history", func(cmd *cobra.Command, _ *config.Config, repository *persistence.Repository) error {
			if !repository.ClearHistory() {
				return fmt.Errorf("failed to clear the history")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return err
		}),
	)
	return historyCommand
}

func printHistory(out io.Writer, history []persistence.HistoryEntry) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(out, "No history yet.")
		return err
	}
	for _, entry := range history {
		if _, err := fmt.Fprintf(out, "%s  %4d - %-4d  %3d words  accuracy %3d%%  %s\n",
			entry.CompletedAt.Local().Format("2006-01-02 15:04"),
			entry.StartRange,
			entry.EndRange,
			entry.TotalWords,
			entry.AccuracyPct,
			result.FormatDuration(entry.DurationSeconds),
		); err != nil {
			return err
		}
	}
	return nil
}

func printHistoryStats(out io.Writer, stats persistence.HistoryStats) error {
	_, err := fmt.Fprintf(out, "Sessions: %d\nWords: %d\nCorrect words: %d\nAverage accuracy: %d%%\nBest accuracy: %d%%\n",
		stats.TotalSessions,
		stats.TotalWords,
		stats.TotalCorrect,
		stats.AverageAccuracy,
		stats.BestAccuracy,
	)
	return err
}
