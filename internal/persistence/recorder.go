package persistence

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/at-ishikawa/spellingtrainer/internal/result"
	"github.com/at-ishikawa/spellingtrainer/internal/session"
)

// SessionRecorder mirrors store changes into the repository.
type SessionRecorder struct {
	repository *Repository

	mu        sync.Mutex
	startedAt time.Time
	resuming  atomic.Bool
}

// NewSessionRecorder keeps the start time of restored when it is not nil.
func NewSessionRecorder(repository *Repository, restored *PersistedSession) *SessionRecorder {
	recorder := &SessionRecorder{repository: repository}
	if restored != nil {
		recorder.startedAt = restored.StartedAt
	}
	return recorder
}

// Attach subscribes the recorder to store and returns the unsubscribe function.
func (r *SessionRecorder) Attach(store *session.Store) func() {
	return store.Subscribe(r.Record)
}

// StartedAt returns when the current session started, or the zero time before any save.
func (r *SessionRecorder) StartedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startedAt
}

// Record saves the state after changes a learner would expect to resume.
// Sessions without words and review sub-sessions are not saved.
func (r *SessionRecorder) Record(event session.EventType, state session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event {
	case session.EventAllReset:
		r.startedAt = time.Time{}
		r.repository.ClearSession()
		return
	case session.EventWordsLoaded:
		if r.resuming.Load() {
			return
		}
		r.startedAt = r.repository.now()
	case session.EventConfigChanged,
		session.EventAnswerSubmitted,
		session.EventWordChanged,
		session.EventSpellingReset,
		session.EventSessionRestored:
	default:
		return
	}

	if len(state.Words) == 0 || state.IsReviewMode {
		return
	}
	if r.startedAt.IsZero() {
		r.startedAt = r.repository.now()
	}
	r.repository.SaveSession(PersistedSession{
		StartRange:   state.StartRange,
		EndRange:     state.EndRange,
		CurrentIndex: state.CurrentIndex,
		Answers:      state.Answers,
		ShowImages:   state.ShowImages,
		StartedAt:    r.startedAt,
	})
}

// Resume reloads the words of persisted and puts its progress back into store.
// The stored session is left untouched when the words cannot be loaded.
func (r *SessionRecorder) Resume(ctx context.Context, store *session.Store, persisted *PersistedSession) error {
	r.resuming.Store(true)
	err := store.LoadWords(ctx, persisted.StartRange, persisted.EndRange)
	r.resuming.Store(false)
	if err != nil {
		return fmt.Errorf("store.LoadWords > %w", err)
	}

	store.RestoreSession(persisted.CurrentIndex, persisted.Answers)
	return nil
}

// RestoreOptions seeds a new store from a persisted session.
func RestoreOptions(persisted *PersistedSession) []session.Option {
	if persisted == nil {
		return nil
	}
	return []session.Option{
		session.WithConfig(persisted.StartRange, persisted.EndRange, persisted.ShowImages),
		session.WithRestoredProgress(persisted.CurrentIndex, persisted.Answers),
	}
}

// NewHistoryEntry summarizes a completed session. The ID is assigned by SaveHistory.
func NewHistoryEntry(state session.State, stats result.Stats, completedAt time.Time) HistoryEntry {
	entry := HistoryEntry{
		StartRange:   state.StartRange,
		EndRange:     state.EndRange,
		TotalWords:   stats.TotalWords,
		CorrectWords: stats.CorrectWords,
		AccuracyPct:  stats.AccuracyPct,
		CompletedAt:  completedAt,
	}
	if stats.DurationSeconds != nil {
		entry.DurationSeconds = *stats.DurationSeconds
	}
	return entry
}
