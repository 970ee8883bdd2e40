package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/at-ishikawa/spellingtrainer/internal/result"
	"github.com/at-ishikawa/spellingtrainer/internal/session"
	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

const quitCommand = ":quit"

// CompletionHandler is called when every word of a session, not a review, is mastered.
type CompletionHandler func(state session.State, stats result.Stats) error

// SpellingQuizCLI asks the learner to spell the words of a session store
type SpellingQuizCLI struct {
	*InteractiveQuizCLI
	store      *session.Store
	startedAt  func() time.Time
	now        func() time.Time
	onComplete CompletionHandler
}

// NewSpellingQuizCLI creates a quiz over store. startedAt reports when the current session started.
func NewSpellingQuizCLI(
	stdin io.Reader,
	stdout io.Writer,
	store *session.Store,
	startedAt func() time.Time,
	onComplete CompletionHandler,
) *SpellingQuizCLI {
	return &SpellingQuizCLI{
		InteractiveQuizCLI: newInteractiveQuizCLI(stdin, stdout),
		store:              store,
		startedAt:          startedAt,
		now:                time.Now,
		onComplete:         onComplete,
	}
}

// Session asks the current word once and moves on to the next word which is not mastered yet.
func (r *SpellingQuizCLI) Session(ctx context.Context) error {
	state := r.store.State()
	currentWord, ok := state.CurrentWord()
	if !ok {
		_, _ = fmt.Fprintln(r.stdoutWriter, "No words to practice!")
		return errEnd
	}
	if state.IsComplete() {
		return errEnd
	}

	r.printQuestion(state, currentWord)
	userAnswer, err := r.readLine()
	if err != nil {
		return err
	}
	if strings.TrimSpace(userAnswer) == quitCommand {
		return errEnd
	}

	if err := spelling.ValidateAnswer(userAnswer); err != nil {
		var answerErr *spelling.AnswerError
		if errors.As(err, &answerErr) {
			_, _ = r.red.Fprintln(r.stdoutWriter, answerErr.Error())
			return nil
		}
		return fmt.Errorf("spelling.ValidateAnswer > %w", err)
	}

	answer, ok := r.store.SubmitAnswer(userAnswer)
	if !ok {
		return errEnd
	}
	if answer.IsCorrect {
		_, _ = fmt.Fprint(r.stdoutWriter, "✅ ")
		_, _ = r.green.Fprintf(r.stdoutWriter, "Correct: %s\n", r.bold.Sprint(answer.CorrectWord))
	} else {
		_, _ = fmt.Fprint(r.stdoutWriter, "❌ ")
		_, _ = r.red.Fprintf(r.stdoutWriter, "Wrong. The spelling is %s\n", r.bold.Sprint(answer.CorrectWord))
	}
	_, _ = fmt.Fprintln(r.stdoutWriter)

	r.store.Advance()
	return nil
}

func (r *SpellingQuizCLI) printQuestion(state session.State, word spelling.Word) {
	stats := spelling.CalculateStats(state.Answers)
	header := fmt.Sprintf("Word %d/%d", state.CurrentIndex+1, len(state.Words))
	if state.IsReviewMode {
		header = "[Review] " + header
	}
	if stats.Total > 0 {
		header += fmt.Sprintf(" | %d/%d correct | Accuracy: %d%%", stats.Correct, stats.Total, stats.AccuracyPct)
	}
	_, _ = fmt.Fprintln(r.stdoutWriter, header)

	_, _ = r.bold.Fprint(r.stdoutWriter, word.Meaning)
	if word.PartOfSpeech != "" {
		_, _ = fmt.Fprintf(r.stdoutWriter, " (%s)", word.PartOfSpeech)
	}
	_, _ = fmt.Fprintln(r.stdoutWriter)
	if word.Pronunciation != "" {
		_, _ = r.italic.Fprintln(r.stdoutWriter, word.Pronunciation)
	}
	if word.ExampleSentence != "" {
		_, _ = fmt.Fprintf(r.stdoutWriter, "e.g. %s\n", maskWord(word.ExampleSentence, word.Word))
	}
	_, _ = fmt.Fprint(r.stdoutWriter, "> ")
}

// maskWord hides every case-insensitive occurrence of word in sentence.
func maskWord(sentence, word string) string {
	if word == "" {
		return sentence
	}
	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(word))
	return pattern.ReplaceAllStringFunc(sentence, func(match string) string {
		return strings.Repeat("_", utf8.RuneCountInString(match))
	})
}

// Play runs the quiz until all words are mastered, then shows the result
// and offers to review the missed words until none are left or the learner declines.
func (r *SpellingQuizCLI) Play(ctx context.Context) error {
	for {
		if err := r.Run(ctx, r); err != nil {
			return err
		}

		state := r.store.State()
		if !state.IsComplete() {
			return nil
		}
		if state.IsReviewMode {
			r.store.EndReviewMode()
		}

		stats := result.CalculateStats(state.Words, state.Answers, r.startedAt(), r.now())
		r.PrintResult(state, stats)
		if !state.IsReviewMode && r.onComplete != nil {
			if err := r.onComplete(state, stats); err != nil {
				return fmt.Errorf("onComplete > %w", err)
			}
		}

		missed := result.MistakeWords(state.Words, state.Answers)
		if len(missed) == 0 {
			return nil
		}
		if !r.confirm(fmt.Sprintf("Review %d missed words?", len(missed))) {
			return nil
		}
		r.store.StartReviewMode(missed)
	}
}

// PrintResult shows the summary of a finished session.
func (r *SpellingQuizCLI) PrintResult(state session.State, stats result.Stats) {
	title := "Result"
	if state.IsReviewMode {
		title = "Review result"
	}
	_, _ = r.bold.Fprintf(r.stdoutWriter, "%s: %d - %d\n", title, state.StartRange, state.EndRange)
	_, _ = fmt.Fprintf(r.stdoutWriter, "Words: %d, Correct: %d, Incorrect: %d, Attempts: %d\n",
		stats.TotalWords, stats.CorrectWords, stats.IncorrectWords, stats.TotalAttempts)
	_, _ = fmt.Fprintf(r.stdoutWriter, "Accuracy: %d%%\n", stats.AccuracyPct)
	if stats.DurationSeconds != nil {
		_, _ = fmt.Fprintf(r.stdoutWriter, "Duration: %s\n", result.FormatDuration(*stats.DurationSeconds))
	}

	incorrect := result.IncorrectWordStats(state.Words, state.Answers)
	if len(incorrect) == 0 {
		_, _ = r.green.Fprintln(r.stdoutWriter, "Perfect! No mistakes.")
		return
	}
	_, _ = fmt.Fprintln(r.stdoutWriter, "Missed words:")
	for _, stat := range incorrect {
		_, _ = fmt.Fprintf(r.stdoutWriter, "  %s (%s): %d mistakes, answers: %s\n",
			r.bold.Sprint(stat.Word.Word),
			r.italic.Sprint(stat.Word.Meaning),
			stat.MistakeCount,
			strings.Join(stat.UserAnswers, ", "),
		)
	}
}
