package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/spellingtrainer/internal/assets"
	"github.com/at-ishikawa/spellingtrainer/internal/bootstrap"
	"github.com/at-ishikawa/spellingtrainer/internal/cli"
	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/pdf"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
	"github.com/at-ishikawa/spellingtrainer/internal/result"
	"github.com/at-ishikawa/spellingtrainer/internal/session"
)

type quizOptions struct {
	start      int
	end        int
	showImages bool
	offline    bool
	reportPath string
	pdf        bool

	// set when the flag was given explicitly
	startSet      bool
	endSet        bool
	showImagesSet bool
}

func newQuizCommand() *cobra.Command {
	var opts quizOptions
	command := &cobra.Command{
		Use:   "quiz",
		Short: "Spell the words of a range from their meanings",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.startSet = cmd.Flags().Changed("start")
			opts.endSet = cmd.Flags().Changed("end")
			opts.showImagesSet = cmd.Flags().Changed("show-images")
			return runQuiz(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	command.Flags().IntVar(&opts.start, "start", 0, "first word number of the range (default: saved defaults)")
	command.Flags().IntVar(&opts.end, "end", 0, "last word number of the range (default: saved defaults)")
	command.Flags().BoolVar(&opts.showImages, "show-images", false, "keep word images enabled for the session")
	command.Flags().BoolVar(&opts.offline, "offline", false, "use the built-in words instead of the words API")
	command.Flags().StringVar(&opts.reportPath, "report", "", "write a markdown result report to this path")
	command.Flags().BoolVar(&opts.pdf, "pdf", false, "also convert the result report to PDF")
	return command
}

func runQuiz(ctx context.Context, opts quizOptions, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app := bootstrap.New()
	cfg, repository, err := openRepository(ctx, app, storageDriver)
	if err != nil {
		_ = app.Close(ctx)
		return err
	}

	return app.Run(ctx, func(ctx context.Context) error {
		source, err := app.NewWordSource(cfg.WordsAPI, opts.offline)
		if err != nil {
			return fmt.Errorf("app.NewWordSource > %w", err)
		}
		store, recorder, restored := bootstrap.NewSession(repository, source, cfg.Defaults)

		state := store.State()
		start, end := state.StartRange, state.EndRange
		if opts.startSet {
			start = opts.start
		}
		if opts.endSet {
			end = opts.end
		}

		if restored != nil && restored.StartRange == start && restored.EndRange == end {
			_, _ = fmt.Fprintf(stdout, "Resuming the session of %d - %d (%d answers)\n", start, end, len(restored.Answers))
			if err := recorder.Resume(ctx, store, restored); err != nil {
				return fmt.Errorf("recorder.Resume > %w", err)
			}
		} else if err := store.LoadWords(ctx, start, end); err != nil {
			return fmt.Errorf("store.LoadWords > %w", err)
		}
		if opts.showImagesSet {
			store.SetConfig(opts.showImages, start, end)
		}

		onComplete := func(state session.State, stats result.Stats) error {
			return completeQuiz(cfg, repository, opts, state, stats, time.Now(), stdout)
		}
		quiz := cli.NewSpellingQuizCLI(stdin, stdout, store, recorder.StartedAt, onComplete)
		_, _ = fmt.Fprintf(stdout, "Spelling %d words of %d - %d. Type :quit to stop.\n\n", len(store.State().Words), start, end)
		return quiz.Play(ctx)
	})
}

// completeQuiz records a finished session in the history and writes the result report when requested.
// The finished session is not resumed again.
func completeQuiz(
	cfg *config.Config,
	repository *persistence.Repository,
	opts quizOptions,
	state session.State,
	stats result.Stats,
	completedAt time.Time,
	stdout io.Writer,
) error {
	if entry, ok := repository.SaveHistory(persistence.NewHistoryEntry(state, stats, completedAt)); ok {
		slog.Debug("saved history", "id", entry.ID)
	}
	repository.ClearSession()

	if opts.reportPath == "" && !opts.pdf {
		return nil
	}
	reportPath := opts.reportPath
	if reportPath == "" {
		reportPath = filepath.Join(
			cfg.Outputs.ReportDirectory,
			fmt.Sprintf("spelling-%d-%d-%s.md", state.StartRange, state.EndRange, completedAt.Format("20060102-150405")),
		)
	}
	if err := writeResultReport(cfg.Templates.ResultReportTemplate, reportPath, newResultReport(state, stats, completedAt)); err != nil {
		return fmt.Errorf("writeResultReport > %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "Report: %s\n", reportPath)

	if opts.pdf {
		pdfPath, err := pdf.ConvertMarkdownToPDF(reportPath)
		if err != nil {
			return fmt.Errorf("pdf.ConvertMarkdownToPDF > %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "PDF: %s\n", pdfPath)
	}
	return nil
}

func newResultReport(state session.State, stats result.Stats, completedAt time.Time) assets.ResultReport {
	report := assets.ResultReport{
		StartRange:  state.StartRange,
		EndRange:    state.EndRange,
		CompletedAt: completedAt,
		Stats:       stats,
		Incorrect:   result.IncorrectWordStats(state.Words, state.Answers),
		Correct:     result.CorrectWordStats(state.Words, state.Answers),
	}
	if stats.DurationSeconds != nil {
		report.Duration = result.FormatDuration(*stats.DurationSeconds)
	}
	return report
}

func writeResultReport(templatePath, reportPath string, report assets.ResultReport) error {
	if err := os.MkdirAll(filepath.Dir(reportPath), 0755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(reportPath), err)
	}
	file, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", reportPath, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := assets.WriteResultReport(file, templatePath, report); err != nil {
		return fmt.Errorf("assets.WriteResultReport > %w", err)
	}
	return nil
}
