// Package session holds the state of a spelling quiz and the operations that change it.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

type EventType string

const (
	EventLoadStarted     EventType = "load_started"
	EventWordsLoaded     EventType = "words_loaded"
	EventLoadFailed      EventType = "load_failed"
	EventConfigChanged   EventType = "config_changed"
	EventAnswerSubmitted EventType = "answer_submitted"
	EventWordChanged     EventType = "word_changed"
	EventSpellingReset   EventType = "spelling_reset"
	EventAllReset        EventType = "all_reset"
	EventReviewStarted   EventType = "review_started"
	EventReviewEnded     EventType = "review_ended"
	EventSessionRestored EventType = "session_restored"
)

// Listener is notified after every state change with a snapshot of the new state.
// Listeners run synchronously in the order of the changes. They may read the store but must not mutate it.
type Listener func(event EventType, state State)

type Option func(*Store)

// WithSelector replaces the random source used to pick questions.
func WithSelector(selector spelling.Selector) Option {
	return func(s *Store) {
		s.selector = selector
	}
}

// WithConfig sets the range and image preference of a new store.
func WithConfig(startRange, endRange int, showImages bool) Option {
	return func(s *Store) {
		s.state.StartRange = startRange
		s.state.EndRange = endRange
		s.state.ShowImages = showImages
	}
}

// WithRestoredProgress seeds the position and answers of a resumed session.
// Review mode is never restored.
func WithRestoredProgress(currentIndex int, answers []spelling.Answer) Option {
	return func(s *Store) {
		s.state.CurrentIndex = currentIndex
		s.state.Answers = slices.Clone(answers)
	}
}

// Store owns one spelling session.
// It is safe for concurrent use; a word load that finishes later overwrites an earlier one.
type Store struct {
	mu       sync.Mutex
	state    State
	initial  State
	source   WordSource
	selector spelling.Selector

	listenerMu     sync.Mutex
	listeners      map[int]Listener
	nextListenerID int
	notifyMu       sync.Mutex
}

func NewStore(source WordSource, opts ...Option) *Store {
	s := &Store{
		source:    source,
		selector:  spelling.DefaultSelector,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initial = State{
		StartRange: s.state.StartRange,
		EndRange:   s.state.EndRange,
		ShowImages: s.state.ShowImages,
	}
	return s
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(listener Listener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = listener
	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		delete(s.listeners, id)
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) CurrentWord() (spelling.Word, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentWord()
}

// update applies change under the lock and notifies listeners when change reports a mutation.
func (s *Store) update(event EventType, change func(state *State) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !change(&s.state) {
		s.mu.Unlock()
		return
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.listenerMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenerMu.Unlock()

	for _, listener := range listeners {
		listener(event, snapshot)
	}
}

// LoadWords replaces the session words with the words of [start, end].
// An invalid range is returned without touching the state.
// A fetch failure is stored in State.Error and returned; the previous words are kept.
func (s *Store) LoadWords(ctx context.Context, start, end int) error {
	if err := spelling.ValidateRange(start, end); err != nil {
		return err
	}

	s.update(EventLoadStarted, func(state *State) bool {
		state.IsLoading = true
		state.Error = ""
		return true
	})

	words, err := s.source.FetchWords(ctx, start, end)
	if err != nil {
		slog.Debug("failed to load words", "start", start, "end", end, "error", err)
		s.update(EventLoadFailed, func(state *State) bool {
			state.IsLoading = false
			state.Error = err.Error()
			return true
		})
		return fmt.Errorf("source.FetchWords > %w", err)
	}

	s.update(EventWordsLoaded, func(state *State) bool {
		state.Words = slices.Clone(words)
		state.Answers = nil
		state.CurrentIndex = s.selector.InitialWordIndex(len(words))
		state.StartRange = start
		state.EndRange = end
		state.IsLoading = false
		state.Error = ""
		state.IsReviewMode = false
		return true
	})
	return nil
}

func (s *Store) SetConfig(showImages bool, startRange, endRange int) {
	s.update(EventConfigChanged, func(state *State) bool {
		state.ShowImages = showImages
		state.StartRange = startRange
		state.EndRange = endRange
		return true
	})
}

// SubmitAnswer grades text against the current word and records the answer.
// ok is false when there is no current word.
func (s *Store) SubmitAnswer(text string) (answer spelling.Answer, ok bool) {
	s.update(EventAnswerSubmitted, func(state *State) bool {
		word, found := state.CurrentWord()
		if !found {
			return false
		}
		answer = spelling.NewAnswer(word, text)
		ok = true
		state.Answers = append(state.Answers, answer)
		return true
	})
	return answer, ok
}

// Advance moves to a randomly chosen word that is not mastered yet.
// It returns true without changing the state when every word is mastered.
func (s *Store) Advance() (complete bool) {
	s.update(EventWordChanged, func(state *State) bool {
		index, ok := s.selector.NextWordIndex(state.Words, state.Answers)
		if !ok {
			complete = true
			return false
		}
		state.CurrentIndex = index
		return true
	})
	return complete
}

// GoToWord jumps to index. Out-of-range indices are ignored.
func (s *Store) GoToWord(index int) bool {
	var moved bool
	s.update(EventWordChanged, func(state *State) bool {
		if index < 0 || index >= len(state.Words) {
			return false
		}
		state.CurrentIndex = index
		moved = true
		return true
	})
	return moved
}

func (s *Store) NextWord() bool {
	var moved bool
	s.update(EventWordChanged, func(state *State) bool {
		if state.CurrentIndex >= len(state.Words)-1 {
			return false
		}
		state.CurrentIndex++
		moved = true
		return true
	})
	return moved
}

func (s *Store) PreviousWord() bool {
	var moved bool
	s.update(EventWordChanged, func(state *State) bool {
		if state.CurrentIndex <= 0 {
			return false
		}
		state.CurrentIndex--
		moved = true
		return true
	})
	return moved
}

// ResetSpelling clears the answers and the load error, and goes back to the first word.
func (s *Store) ResetSpelling() {
	s.update(EventSpellingReset, func(state *State) bool {
		state.CurrentIndex = 0
		state.Answers = nil
		state.Error = ""
		return true
	})
}

// ResetAll returns to the state the store was created with, without words or answers.
func (s *Store) ResetAll() {
	s.update(EventAllReset, func(state *State) bool {
		*state = s.initial.clone()
		return true
	})
}

// StartReviewMode replaces the words with the given subset, typically the missed words.
func (s *Store) StartReviewMode(words []spelling.Word) {
	s.update(EventReviewStarted, func(state *State) bool {
		state.Words = slices.Clone(words)
		state.CurrentIndex = 0
		state.Answers = nil
		state.Error = ""
		state.IsReviewMode = true
		return true
	})
}

func (s *Store) EndReviewMode() {
	s.update(EventReviewEnded, func(state *State) bool {
		state.IsReviewMode = false
		return true
	})
}

// RestoreSession sets the position and answers of resumed progress.
// An index outside the loaded words falls back to the first word.
func (s *Store) RestoreSession(currentIndex int, answers []spelling.Answer) {
	s.update(EventSessionRestored, func(state *State) bool {
		if currentIndex < 0 || (len(state.Words) > 0 && currentIndex >= len(state.Words)) {
			currentIndex = 0
		}
		state.CurrentIndex = currentIndex
		state.Answers = slices.Clone(answers)
		return true
	})
}
