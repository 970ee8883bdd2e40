package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/spellingtrainer/internal/bootstrap"
	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// openRepository loads the config and opens its storage. The storage is closed with app.
func openRepository(ctx context.Context, app *bootstrap.App, storageDriver string) (*config.Config, *persistence.Repository, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if storageDriver != "" {
		cfg.Storage.Driver = storageDriver
	}

	repository, err := app.NewRepository(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("app.NewRepository > %w", err)
	}
	return cfg, repository, nil
}

var storageDrivers = []string{
	bootstrap.StorageDriverMemory,
	bootstrap.StorageDriverFile,
	bootstrap.StorageDriverSQLite,
	bootstrap.StorageDriverMySQL,
}

// storageDriverValue is a pflag.Value which accepts only known storage drivers.
type storageDriverValue struct {
	driver *string
}

var _ pflag.Value = (*storageDriverValue)(nil)

func newStorageDriverValue(driver *string) *storageDriverValue {
	return &storageDriverValue{driver: driver}
}

func (v *storageDriverValue) String() string {
	if v.driver == nil {
		return ""
	}
	return *v.driver
}

func (v *storageDriverValue) Set(value string) error {
	for _, driver := range storageDrivers {
		if value == driver {
			*v.driver = value
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(storageDrivers, ", "))
}

func (v *storageDriverValue) Type() string {
	return "driver"
}

// newRepositoryCommand creates a leaf command which runs fn with the configured repository.
func newRepositoryCommand(
	use, short string,
	fn func(cmd *cobra.Command, cfg *config.Config, repository *persistence.Repository) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			app := bootstrap.New()
			defer func() {
				_ = app.Close(ctx)
			}()

			cfg, repository, err := openRepository(ctx, app, storageDriver)
			if err != nil {
				return err
			}
			return fn(cmd, cfg, repository)
		},
	}
}
