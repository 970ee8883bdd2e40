package server

import (
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
	"github.com/at-ishikawa/spellingtrainer/internal/result"
	"github.com/at-ishikawa/spellingtrainer/internal/session"
	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

// EmptyRequest is the request of procedures without parameters.
type EmptyRequest struct{}

// SessionState is the store state together with the values derived from it.
type SessionState struct {
	State       session.State  `json:"state"`
	CurrentWord *spelling.Word `json:"currentWord,omitempty"`
	Progress    int            `json:"progress"`
	Stats       spelling.Stats `json:"stats"`
	IsComplete  bool           `json:"isComplete"`
}

func newSessionState(state session.State) *SessionState {
	response := &SessionState{
		State:      state,
		Progress:   state.Progress(),
		Stats:      spelling.CalculateStats(state.Answers),
		IsComplete: state.IsComplete(),
	}
	if word, ok := state.CurrentWord(); ok {
		response.CurrentWord = &word
	}
	return response
}

type LoadWordsRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

type SubmitAnswerResponse struct {
	Answer spelling.Answer `json:"answer"`
	State  *SessionState   `json:"state"`
}

type AdvanceResponse struct {
	Complete bool          `json:"complete"`
	State    *SessionState `json:"state"`
}

type GoToWordRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

type SetConfigRequest struct {
	ShowImages bool `json:"showImages"`
	StartRange int  `json:"startRange" validate:"gte=1,lte=1900"`
	EndRange   int  `json:"endRange" validate:"gte=1,lte=1900,gtefield=StartRange"`
	// SaveAsDefault also stores the values as the user defaults of the next session.
	SaveAsDefault bool `json:"saveAsDefault"`
}

type ResultResponse struct {
	Stats     result.Stats              `json:"stats"`
	Incorrect []result.WordMistakeStats `json:"incorrect"`
	Correct   []result.WordMistakeStats `json:"correct"`
	All       []result.WordMistakeStats `json:"all"`
}

type HistoryResponse struct {
	Entries []persistence.HistoryEntry `json:"entries"`
	Stats   persistence.HistoryStats   `json:"stats"`
}
