package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/spellingtrainer/internal/bootstrap"
	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/server"
)

const configFileEnv = "SPELLTRAINER_CONFIG"

var (
	configFile string
	offline    bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var debugMode bool
	rootCmd := &cobra.Command{
		Use:           "spelltrainer-server",
		Short:         "Spelling trainer HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", os.Getenv(configFileEnv), "config file path (env "+configFileEnv+")")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "serve the built-in words instead of the words API")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")
	return rootCmd
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})),
	)
}

func run(ctx context.Context) error {
	app := bootstrap.New()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	srv, err := newServer(ctx, app, cfg)
	if err != nil {
		_ = app.Close(ctx)
		return err
	}

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

// newServer wires the session of the configured storage into the Connect handler.
// A still valid saved session is resumed; a failure to resume starts an empty session instead.
func newServer(ctx context.Context, app *bootstrap.App, cfg *config.Config) (*http.Server, error) {
	repository, err := app.NewRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app.NewRepository > %w", err)
	}
	source, err := app.NewWordSource(cfg.WordsAPI, offline)
	if err != nil {
		return nil, fmt.Errorf("app.NewWordSource > %w", err)
	}

	store, recorder, restored := bootstrap.NewSession(repository, source, cfg.Defaults)
	if restored != nil {
		if err := recorder.Resume(ctx, store, restored); err != nil {
			slog.Warn("failed to resume the saved session", "error", err)
		}
	}

	handler, err := server.NewSpellingHandler(store, repository, recorder.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("server.NewSpellingHandler > %w", err)
	}
	app.AddShutdownHook(func(context.Context) error {
		handler.Close()
		return nil
	})

	path, h := server.NewSpellingServiceHandler(handler)
	mux := http.NewServeMux()
	mux.Handle(path, h)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.CORSMiddleware(h2c.NewHandler(mux, &http2.Server{}), cfg.Server.CORS.AllowedOrigins),
	}
	app.AddShutdownHook(srv.Shutdown)
	return srv, nil
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
