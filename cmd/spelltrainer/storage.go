package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/spellingtrainer/internal/bootstrap"
	"github.com/at-ishikawa/spellingtrainer/internal/datasync"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
)

func newStorageCommand() *cobra.Command {
	storageCommand := &cobra.Command{
		Use:   "storage",
		Short: "Manage the stored session, defaults and history",
	}
	storageCommand.AddCommand(newStorageSyncCommand())
	return storageCommand
}

func newStorageSyncCommand() *cobra.Command {
	var from, to string
	var opts datasync.SyncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy the saved data from one storage driver to another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if from == to {
				return fmt.Errorf("--from and --to must be different storages")
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			app := bootstrap.New()
			defer func() {
				_ = app.Close(ctx)
			}()

			fromConfig := cfg.Storage
			fromConfig.Driver = from
			source, err := app.OpenStorage(ctx, fromConfig, cfg.Database)
			if err != nil {
				return fmt.Errorf("open %s storage > %w", from, err)
			}
			toConfig := cfg.Storage
			toConfig.Driver = to
			destination, err := app.OpenStorage(ctx, toConfig, cfg.Database)
			if err != nil {
				return fmt.Errorf("open %s storage > %w", to, err)
			}

			out := cmd.OutOrStdout()
			result, err := datasync.NewSyncer(source, destination, out).Sync(persistence.Keys(), opts)
			if err != nil {
				return fmt.Errorf("sync > %w", err)
			}

			_, _ = fmt.Fprintf(out, "\nSync Summary (%s -> %s):\n", from, to)
			if opts.DryRun {
				_, _ = fmt.Fprintln(out, "  (dry-run mode, no changes made)")
			}
			_, err = fmt.Fprintf(out, "  %d new, %d skipped, %d updated, %d missing\n", result.New, result.Skipped, result.Updated, result.Missing)
			return err
		},
	}

	usage := strings.Join(storageDrivers, ", ")
	cmd.Flags().Var(newStorageDriverValue(&from), "from", "storage to copy from: "+usage)
	cmd.Flags().Var(newStorageDriverValue(&to), "to", "storage to copy to: "+usage)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Preview changes without modifying the destination")
	cmd.Flags().BoolVar(&opts.UpdateExisting, "update-existing", false, "Overwrite entries which already exist in the destination")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
