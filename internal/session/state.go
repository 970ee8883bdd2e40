package session

import (
	"slices"

	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

// State is a snapshot of a spelling session.
// Error is empty when there is no error to show.
type State struct {
	Words        []spelling.Word   `json:"words"`
	CurrentIndex int               `json:"currentIndex"`
	Answers      []spelling.Answer `json:"answers"`
	IsLoading    bool              `json:"isLoading"`
	Error        string            `json:"error,omitempty"`
	ShowImages   bool              `json:"showImages"`
	StartRange   int               `json:"startRange"`
	EndRange     int               `json:"endRange"`
	IsReviewMode bool              `json:"isReviewMode"`
}

// CurrentWord returns the word at CurrentIndex, if any.
func (s State) CurrentWord() (spelling.Word, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Words) {
		return spelling.Word{}, false
	}
	return s.Words[s.CurrentIndex], true
}

// IsComplete reports whether words are loaded and all of them are answered correctly.
func (s State) IsComplete() bool {
	return len(s.Words) > 0 && spelling.IsSessionComplete(s.Words, s.Answers)
}

func (s State) Progress() int {
	return spelling.CalculateProgress(s.CurrentIndex, len(s.Words))
}

func (s State) clone() State {
	cloned := s
	cloned.Words = slices.Clone(s.Words)
	cloned.Answers = slices.Clone(s.Answers)
	return cloned
}
