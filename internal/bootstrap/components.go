package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/database"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
	"github.com/at-ishikawa/spellingtrainer/internal/session"
	"github.com/at-ishikawa/spellingtrainer/internal/storage"
	"github.com/at-ishikawa/spellingtrainer/internal/wordsource"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverFile   = "file"
	StorageDriverSQLite = "sqlite"
	StorageDriverMySQL  = "mysql"
)

// OpenStorage opens the storage selected by cfg.Driver.
// SQL connections are closed by the app's shutdown hooks.
func (a *App) OpenStorage(ctx context.Context, cfg config.StorageConfig, dbConfig config.DatabaseConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case StorageDriverMemory:
		return storage.NewMemoryStorage(), nil
	case StorageDriverFile, "":
		return storage.NewFileStorage(cfg.FilePath), nil
	case StorageDriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("database.OpenSQLite > %w", err)
		}
		return a.migrate(ctx, db, storage.SQLiteDialect)
	case StorageDriverMySQL:
		db, err := database.Open(dbConfig)
		if err != nil {
			return nil, fmt.Errorf("database.Open > %w", err)
		}
		return a.migrate(ctx, db, storage.MySQLDialect)
	}
	return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
}

func (a *App) migrate(ctx context.Context, db *sqlx.DB, dialect storage.Dialect) (storage.Storage, error) {
	a.AddShutdownHook(func(context.Context) error {
		return db.Close()
	})

	s := storage.NewSQLStorage(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("storage.Migrate > %w", err)
	}
	return s, nil
}

// NewWordSource returns the offline fixture source or the words API client.
func (a *App) NewWordSource(cfg config.WordsAPIConfig, offline bool) (session.WordSource, error) {
	if offline {
		slog.Debug("using offline word fixtures")
		source, err := wordsource.NewFixtureSource()
		if err != nil {
			return nil, fmt.Errorf("wordsource.NewFixtureSource > %w", err)
		}
		return source, nil
	}

	client := wordsource.NewClient(wordsource.Config{
		BaseURL:       cfg.BaseURL,
		Timeout:       cfg.Timeout,
		CacheTTL:      cfg.CacheTTL,
		CacheCapacity: cfg.CacheCapacity,
		RetryAttempts: cfg.RetryAttempts,
	})
	a.AddShutdownHook(func(context.Context) error {
		return client.Close()
	})
	return client, nil
}

// NewRepository opens the configured storage and wraps it for persistence.
func (a *App) NewRepository(ctx context.Context, cfg *config.Config) (*persistence.Repository, error) {
	s, err := a.OpenStorage(ctx, cfg.Storage, cfg.Database)
	if err != nil {
		return nil, err
	}
	return persistence.NewRepository(s, persistence.WithSessionValidity(cfg.Session.Validity)), nil
}

// NewSession builds a store for the configured defaults and mirrors it into repository.
// A still valid saved session is returned so the caller can resume it.
func NewSession(repository *persistence.Repository, source session.WordSource, defaults config.DefaultsConfig, opts ...session.Option) (*session.Store, *persistence.SessionRecorder, *persistence.PersistedSession) {
	restored := repository.LoadValidSession()

	storeOpts := []session.Option{session.WithConfig(defaults.StartRange, defaults.EndRange, defaults.ShowImages)}
	if userConfig := repository.LoadConfig(); userConfig != nil {
		storeOpts = []session.Option{session.WithConfig(userConfig.DefaultStartRange, userConfig.DefaultEndRange, userConfig.DefaultShowImages)}
	}
	storeOpts = append(storeOpts, persistence.RestoreOptions(restored)...)
	storeOpts = append(storeOpts, opts...)

	store := session.NewStore(source, storeOpts...)
	recorder := persistence.NewSessionRecorder(repository, restored)
	recorder.Attach(store)
	return store, recorder, restored
}
