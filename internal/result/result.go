// Package result aggregates an answer history into per-word mistake statistics
// and the summary shown after a session.
//
// A word counts as correct here as soon as any of its answers is correct. This differs
// from selection in package spelling, where only the latest answer decides mastery; the
// results view depends on this split, so the two rules are kept separate.
package result

import (
	"fmt"
	"sort"
	"time"

	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

// WordMistakeStats holds the attempts made on a single word.
type WordMistakeStats struct {
	Word         spelling.Word `json:"word"`
	MistakeCount int           `json:"mistakeCount"`
	Attempts     int           `json:"attempts"`
	IsCorrect    bool          `json:"isCorrect"`
	UserAnswers  []string      `json:"userAnswers"`
}

// Stats is the summary of a finished session.
type Stats struct {
	TotalWords     int `json:"totalWords"`
	CorrectWords   int `json:"correctWords"`
	IncorrectWords int `json:"incorrectWords"`
	AccuracyPct    int `json:"accuracy"`
	TotalAttempts  int `json:"totalAttempts"`
	// DurationSeconds is set only when the start time of the session is known.
	DurationSeconds *int `json:"duration,omitempty"`
}

// MistakeStatsByWord returns one entry per word, most mistakes first and then most attempts first.
// Answers for words outside words are ignored.
func MistakeStatsByWord(words []spelling.Word, answers []spelling.Answer) []WordMistakeStats {
	stats := make([]WordMistakeStats, len(words))
	indexByID := make(map[int]int, len(words))
	for i, word := range words {
		stats[i] = WordMistakeStats{Word: word, UserAnswers: []string{}}
		indexByID[word.ID] = i
	}

	for _, answer := range answers {
		i, ok := indexByID[answer.WordID]
		if !ok {
			continue
		}
		stats[i].Attempts++
		stats[i].UserAnswers = append(stats[i].UserAnswers, answer.UserAnswer)
		if answer.IsCorrect {
			stats[i].IsCorrect = true
		} else {
			stats[i].MistakeCount++
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].MistakeCount != stats[j].MistakeCount {
			return stats[i].MistakeCount > stats[j].MistakeCount
		}
		return stats[i].Attempts > stats[j].Attempts
	})
	return stats
}

// IncorrectWordStats returns the words missed at least once.
func IncorrectWordStats(words []spelling.Word, answers []spelling.Answer) []WordMistakeStats {
	var result []WordMistakeStats
	for _, stat := range MistakeStatsByWord(words, answers) {
		if stat.MistakeCount > 0 {
			result = append(result, stat)
		}
	}
	return result
}

// CorrectWordStats returns the words answered correctly without any mistake.
func CorrectWordStats(words []spelling.Word, answers []spelling.Answer) []WordMistakeStats {
	var result []WordMistakeStats
	for _, stat := range MistakeStatsByWord(words, answers) {
		if stat.IsCorrect && stat.MistakeCount == 0 {
			result = append(result, stat)
		}
	}
	return result
}

// MistakeWords returns the words of IncorrectWordStats, in the same order.
// It is the word list a review session is started with.
func MistakeWords(words []spelling.Word, answers []spelling.Answer) []spelling.Word {
	stats := IncorrectWordStats(words, answers)
	result := make([]spelling.Word, 0, len(stats))
	for _, stat := range stats {
		result = append(result, stat.Word)
	}
	return result
}

// CalculateStats summarizes a session. A word missed and later corrected is counted both as
// correct and as incorrect, so the accuracy is correct / (correct + incorrect).
// The duration is filled when startedAt is not zero.
func CalculateStats(words []spelling.Word, answers []spelling.Answer, startedAt, now time.Time) Stats {
	correctWords := 0
	incorrectWords := 0
	for _, stat := range MistakeStatsByWord(words, answers) {
		if stat.IsCorrect {
			correctWords++
		}
		if stat.MistakeCount > 0 {
			incorrectWords++
		}
	}

	stats := Stats{
		TotalWords:     len(words),
		CorrectWords:   correctWords,
		IncorrectWords: incorrectWords,
		AccuracyPct:    spelling.Percentage(correctWords, correctWords+incorrectWords),
		TotalAttempts:  len(answers),
	}
	if !startedAt.IsZero() {
		duration := int(now.Sub(startedAt) / time.Second)
		stats.DurationSeconds = &duration
	}
	return stats
}

// FormatDuration renders seconds as "Ns", "Nm", "Nm Ns", "Nh" or "Nh Nm".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60
	if minutes < 60 {
		if remainingSeconds > 0 {
			return fmt.Sprintf("%dm %ds", minutes, remainingSeconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	remainingMinutes := minutes % 60
	if remainingMinutes > 0 {
		return fmt.Sprintf("%dh %dm", hours, remainingMinutes)
	}
	return fmt.Sprintf("%dh", hours)
}
