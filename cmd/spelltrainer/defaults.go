package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

func newDefaultsCommand() *cobra.Command {
	defaultsCommand := &cobra.Command{
		Use:   "defaults",
		Short: "Show or change the range a new session starts with",
	}
	defaultsCommand.AddCommand(
		newRepositoryCommand("show", "Show the defaults of a new session", runDefaultsShow),
		newDefaultsSetCommand(),
	)
	return defaultsCommand
}

// currentDefaults prefers the saved user defaults over the config file.
func currentDefaults(cfg *config.Config, repository *persistence.Repository) (persistence.UserConfig, bool) {
	if saved := repository.LoadConfig(); saved != nil {
		return *saved, true
	}
	return persistence.UserConfig{
		DefaultStartRange: cfg.Defaults.StartRange,
		DefaultEndRange:   cfg.Defaults.EndRange,
		DefaultShowImages: cfg.Defaults.ShowImages,
	}, false
}

func runDefaultsShow(cmd *cobra.Command, cfg *config.Config, repository *persistence.Repository) error {
	defaults, saved := currentDefaults(cfg, repository)
	source := "config"
	if saved {
		source = "saved"
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Range: %d - %d\nShow images: %t\nSource: %s\n",
		defaults.DefaultStartRange, defaults.DefaultEndRange, defaults.DefaultShowImages, source)
	return err
}

func newDefaultsSetCommand() *cobra.Command {
	var start, end int
	var showImages bool
	command := newRepositoryCommand("set", "Save the defaults of a new session", func(cmd *cobra.Command, cfg *config.Config, repository *persistence.Repository) error {
		defaults, _ := currentDefaults(cfg, repository)
		if cmd.Flags().Changed("start") {
			defaults.DefaultStartRange = start
		}
		if cmd.Flags().Changed("end") {
			defaults.DefaultEndRange = end
		}
		if cmd.Flags().Changed("show-images") {
			defaults.DefaultShowImages = showImages
		}
		if err := spelling.ValidateRange(defaults.DefaultStartRange, defaults.DefaultEndRange); err != nil {
			return fmt.Errorf("invalid defaults: %w", err)
		}

		if !repository.SaveConfig(defaults) {
			return fmt.Errorf("failed to save the defaults")
		}
		return runDefaultsShow(cmd, cfg, repository)
	})
	command.Flags().IntVar(&start, "start", 0, "first word number of the range")
	command.Flags().IntVar(&end, "end", 0, "last word number of the range")
	command.Flags().BoolVar(&showImages, "show-images", true, "show word images")
	return command
}
