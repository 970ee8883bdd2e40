package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/spellingtrainer/internal/bootstrap"
	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
	"github.com/at-ishikawa/spellingtrainer/internal/testutil"
)

func TestNewStorageCommand_Sync(t *testing.T) {
	completedAt := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		args        []string
		wantOutputs []string
		wantHistory int
	}{
		{
			name: "file to sqlite",
			args: []string{"sync", "--from", "file", "--to", "sqlite"},
			wantOutputs: []string{
				"  [MISSING] " + persistence.SessionKey + "\n",
				"  [NEW] " + persistence.ConfigKey + "\n",
				"  [NEW] " + persistence.HistoryKey + "\n",
				"Sync Summary (file -> sqlite):\n",
				"  2 new, 0 skipped, 0 updated, 1 missing\n",
			},
			wantHistory: 1,
		},
		{
			name: "dry run",
			args: []string{"sync", "--from", "file", "--to", "sqlite", "--dry-run"},
			wantOutputs: []string{
				"  [NEW] " + persistence.HistoryKey + "\n",
				"  (dry-run mode, no changes made)\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			setConfigFile(t, testutil.SetupTestConfig(t, tmpDir))
			repository := testRepository(tmpDir)
			require.True(t, repository.SaveConfig(persistence.UserConfig{DefaultStartRange: 1, DefaultEndRange: 10}))
			_, ok := repository.SaveHistory(persistence.HistoryEntry{StartRange: 1, EndRange: 10, CompletedAt: completedAt})
			require.True(t, ok)

			output, err := executeCommand(t, newStorageCommand(), "", tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wantOutputs {
				assert.Contains(t, output, want)
			}

			ctx := context.Background()
			app := bootstrap.New()
			t.Cleanup(func() {
				_ = app.Close(ctx)
			})
			sqlite, err := app.OpenStorage(ctx, config.StorageConfig{
				Driver:     bootstrap.StorageDriverSQLite,
				SQLitePath: filepath.Join(tmpDir, "data", "spelltrainer.db"),
			}, config.DatabaseConfig{})
			require.NoError(t, err)
			assert.Len(t, persistence.NewRepository(sqlite).LoadHistory(), tt.wantHistory)
		})
	}
}

func TestNewStorageCommand_Sync_Errors(t *testing.T) {
	tests := []struct {
		name    string
		config  func(t *testing.T) string
		args    []string
		wantErr string
	}{
		{
			name:    "same storage",
			config:  func(t *testing.T) string { return testutil.SetupTestConfig(t, t.TempDir()) },
			args:    []string{"sync", "--from", "file", "--to", "file"},
			wantErr: "--from and --to must be different storages",
		},
		{
			name:    "unknown driver",
			config:  func(t *testing.T) string { return testutil.SetupTestConfig(t, t.TempDir()) },
			args:    []string{"sync", "--from", "file", "--to", "postgres"},
			wantErr: "must be one of memory, file, sqlite, mysql",
		},
		{
			name:    "missing flag",
			config:  func(t *testing.T) string { return testutil.SetupTestConfig(t, t.TempDir()) },
			args:    []string{"sync", "--from", "file"},
			wantErr: `required flag(s) "to" not set`,
		},
		{
			name:    "broken config",
			config:  setupBrokenConfigFile,
			args:    []string{"sync", "--from", "file", "--to", "memory"},
			wantErr: "failed to load configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setConfigFile(t, tt.config(t))

			_, err := executeCommand(t, newStorageCommand(), "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
