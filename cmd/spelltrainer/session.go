package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
)

func newSessionCommand() *cobra.Command {
	sessionCommand := &cobra.Command{
		Use:   "session",
		Short: "Inspect or discard the saved session",
	}

	var clearAll bool
	clearCommand := newRepositoryCommand("clear", "Discard the saved session", func(cmd *cobra.Command, _ *config.Config, repository *persistence.Repository) error {
		if clearAll {
			if !repository.ClearAll() {
				return fmt.Errorf("failed to clear some of the saved data")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Session, defaults and history cleared.")
			return err
		}

		if !repository.ClearSession() {
			return fmt.Errorf("failed to clear the session")
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
		return err
	})
	clearCommand.Flags().BoolVar(&clearAll, "all", false, "also clear the saved defaults and the history")

	sessionCommand.AddCommand(
		newRepositoryCommand("show", "Show the saved session and what is stored", runSessionShow),
		clearCommand,
	)
	return sessionCommand
}

func runSessionShow(cmd *cobra.Command, _ *config.Config, repository *persistence.Repository) error {
	out := cmd.OutOrStdout()
	info := repository.Info()
	if _, err := fmt.Fprintf(out, "Session saved: %t\nSession valid: %t\nDefaults saved: %t\nHistory entries: %d\n",
		info.HasSession, info.IsSessionValid, info.HasConfig, info.HistoryCount); err != nil {
		return err
	}

	persisted := repository.LoadSession()
	if persisted == nil {
		return nil
	}
	correct := 0
	for _, answer := range persisted.Answers {
		if answer.IsCorrect {
			correct++
		}
	}
	_, err := fmt.Fprintf(out, "Range: %d - %d\nCurrent index: %d\nAnswers: %d (%d correct)\nStarted at: %s\nLast updated at: %s\n",
		persisted.StartRange,
		persisted.EndRange,
		persisted.CurrentIndex,
		len(persisted.Answers),
		correct,
		persisted.StartedAt.Local().Format("2006-01-02 15:04:05"),
		persisted.LastUpdatedAt.Local().Format("2006-01-02 15:04:05"),
	)
	return err
}
