package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_session "github.com/at-ishikawa/spellingtrainer/internal/mocks/session"
	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

func testWords(n int) []spelling.Word {
	words := make([]spelling.Word, n)
	for i := range words {
		words[i] = spelling.Word{ID: i + 1, Word: string(rune('a'+i)) + "pple"}
	}
	return words
}

func newLoadedStore(t *testing.T, words []spelling.Word) *Store {
	t.Helper()
	ctrl := gomock.NewController(t)
	source := mock_session.NewMockWordSource(ctrl)
	source.EXPECT().FetchWords(gomock.Any(), 1, len(words)).Return(words, nil)

	store := NewStore(source, WithSelector(spelling.NewSelector(rand.New(rand.NewPCG(1, 2)))))
	require.NoError(t, store.LoadWords(context.Background(), 1, len(words)))
	return store
}

func TestNewStore(t *testing.T) {
	store := NewStore(nil, WithConfig(1521, 1600, true))
	assert.Equal(t, State{StartRange: 1521, EndRange: 1600, ShowImages: true}, store.State())
	_, ok := store.CurrentWord()
	assert.False(t, ok)
}

func TestNewStore_Restored(t *testing.T) {
	answers := []spelling.Answer{{WordID: 2, UserAnswer: "bpple", IsCorrect: true, CorrectWord: "bpple"}}
	store := NewStore(nil, WithConfig(10, 20, false), WithRestoredProgress(3, answers))

	got := store.State()
	assert.Equal(t, 3, got.CurrentIndex)
	assert.Equal(t, answers, got.Answers)
	assert.False(t, got.IsReviewMode)

	store.ResetAll()
	assert.Equal(t, State{StartRange: 10, EndRange: 20}, store.State())
}

func TestStore_LoadWords(t *testing.T) {
	words := testWords(5)

	t.Run("success replaces the session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_session.NewMockWordSource(ctrl)
		source.EXPECT().FetchWords(gomock.Any(), 1, 5).Return(words, nil)

		store := NewStore(source)
		store.StartReviewMode(words[:1])
		store.SubmitAnswer("x")

		var events []EventType
		var loadingSeen bool
		store.Subscribe(func(event EventType, state State) {
			events = append(events, event)
			if event == EventLoadStarted {
				loadingSeen = state.IsLoading
			}
		})

		require.NoError(t, store.LoadWords(context.Background(), 1, 5))
		got := store.State()
		assert.Equal(t, words, got.Words)
		assert.Empty(t, got.Answers)
		assert.GreaterOrEqual(t, got.CurrentIndex, 0)
		assert.Less(t, got.CurrentIndex, 5)
		assert.False(t, got.IsLoading)
		assert.False(t, got.IsReviewMode)
		assert.Empty(t, got.Error)
		assert.Equal(t, 1, got.StartRange)
		assert.Equal(t, 5, got.EndRange)
		assert.True(t, loadingSeen)
		assert.Equal(t, []EventType{EventLoadStarted, EventWordsLoaded}, events)
	})

	t.Run("invalid range does not fetch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_session.NewMockWordSource(ctrl)

		store := NewStore(source)
		err := store.LoadWords(context.Background(), 5, 1)
		var rangeErr *spelling.RangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, spelling.RangeStartAfterEnd, rangeErr.Reason)
		assert.Equal(t, State{}, store.State())
	})

	t.Run("failure keeps previous words", func(t *testing.T) {
		store := newLoadedStore(t, words)
		store.SubmitAnswer("apple")
		before := store.State()

		ctrl := gomock.NewController(t)
		source := mock_session.NewMockWordSource(ctrl)
		source.EXPECT().FetchWords(gomock.Any(), 1, 10).Return(nil, errors.New("request timed out"))
		store.source = source

		err := store.LoadWords(context.Background(), 1, 10)
		require.Error(t, err)

		got := store.State()
		assert.Equal(t, "request timed out", got.Error)
		assert.False(t, got.IsLoading)
		assert.Equal(t, before.Words, got.Words)
		assert.Equal(t, before.Answers, got.Answers)
	})

	t.Run("a new attempt clears the previous error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_session.NewMockWordSource(ctrl)
		gomock.InOrder(
			source.EXPECT().FetchWords(gomock.Any(), 1, 5).Return(nil, errors.New("server error: 500")),
			source.EXPECT().FetchWords(gomock.Any(), 1, 5).Return(words, nil),
		)

		store := NewStore(source)
		require.Error(t, store.LoadWords(context.Background(), 1, 5))
		assert.Equal(t, "server error: 500", store.State().Error)

		var errorOnStart string
		store.Subscribe(func(event EventType, state State) {
			if event == EventLoadStarted {
				errorOnStart = state.Error
			}
		})
		require.NoError(t, store.LoadWords(context.Background(), 1, 5))
		assert.Empty(t, errorOnStart)
		assert.Empty(t, store.State().Error)
	})
}

func TestStore_SubmitAnswer(t *testing.T) {
	store := newLoadedStore(t, testWords(3))
	require.True(t, store.GoToWord(1))

	answer, ok := store.SubmitAnswer(" BPPLE ")
	require.True(t, ok)
	assert.Equal(t, spelling.Answer{WordID: 2, UserAnswer: " BPPLE ", IsCorrect: true, CorrectWord: "bpple"}, answer)

	answer, ok = store.SubmitAnswer("bple")
	require.True(t, ok)
	assert.False(t, answer.IsCorrect)
	assert.Len(t, store.State().Answers, 2)

	t.Run("no current word", func(t *testing.T) {
		empty := NewStore(nil)
		calls := 0
		empty.Subscribe(func(EventType, State) { calls++ })

		_, ok := empty.SubmitAnswer("apple")
		assert.False(t, ok)
		assert.Empty(t, empty.State().Answers)
		assert.Zero(t, calls)
	})
}

func TestStore_Advance(t *testing.T) {
	words := testWords(3)
	store := newLoadedStore(t, words)

	for i := range words {
		require.True(t, store.GoToWord(i))
		store.SubmitAnswer(words[i].Word)
	}
	require.True(t, store.GoToWord(1))
	store.SubmitAnswer("wrong")

	for range 10 {
		assert.False(t, store.Advance())
		assert.Equal(t, 1, store.State().CurrentIndex, "only the missed word is asked again")
	}

	store.SubmitAnswer(words[1].Word)
	assert.True(t, store.Advance())
	assert.Equal(t, 1, store.State().CurrentIndex)
	assert.True(t, store.State().IsComplete())
}

func TestStore_Navigation(t *testing.T) {
	store := newLoadedStore(t, testWords(3))

	assert.False(t, store.GoToWord(3))
	assert.False(t, store.GoToWord(-1))

	require.True(t, store.GoToWord(0))
	assert.False(t, store.PreviousWord())
	assert.True(t, store.NextWord())
	assert.True(t, store.NextWord())
	assert.False(t, store.NextWord())
	assert.Equal(t, 2, store.State().CurrentIndex)
	assert.True(t, store.PreviousWord())

	word, ok := store.CurrentWord()
	require.True(t, ok)
	assert.Equal(t, 2, word.ID)
}

func TestStore_SetConfig(t *testing.T) {
	store := NewStore(nil)
	store.SetConfig(true, 100, 200)

	got := store.State()
	assert.True(t, got.ShowImages)
	assert.Equal(t, 100, got.StartRange)
	assert.Equal(t, 200, got.EndRange)
}

// newStoreWithFailedReload returns a store whose words were loaded once and whose second load failed.
func newStoreWithFailedReload(t *testing.T, words []spelling.Word) *Store {
	t.Helper()
	ctrl := gomock.NewController(t)
	source := mock_session.NewMockWordSource(ctrl)
	gomock.InOrder(
		source.EXPECT().FetchWords(gomock.Any(), 1, len(words)).Return(words, nil),
		source.EXPECT().FetchWords(gomock.Any(), 1, len(words)).Return(nil, errors.New("server error: 500")),
	)

	store := NewStore(source, WithSelector(spelling.NewSelector(rand.New(rand.NewPCG(1, 2)))))
	require.NoError(t, store.LoadWords(context.Background(), 1, len(words)))
	require.Error(t, store.LoadWords(context.Background(), 1, len(words)))
	require.Equal(t, "server error: 500", store.State().Error)
	return store
}

func TestStore_ResetSpelling(t *testing.T) {
	t.Run("clears answers and position", func(t *testing.T) {
		words := testWords(3)
		store := newLoadedStore(t, words)
		require.True(t, store.GoToWord(2))
		store.SubmitAnswer("x")

		store.ResetSpelling()
		got := store.State()
		assert.Equal(t, 0, got.CurrentIndex)
		assert.Empty(t, got.Answers)
		assert.Equal(t, words, got.Words)
	})

	t.Run("clears the load error", func(t *testing.T) {
		words := testWords(3)
		store := newStoreWithFailedReload(t, words)
		store.SubmitAnswer("x")

		store.ResetSpelling()
		got := store.State()
		assert.Empty(t, got.Error)
		assert.Empty(t, got.Answers)
		assert.Equal(t, words, got.Words)
	})
}

func TestStore_StartReviewMode_ClearsError(t *testing.T) {
	words := testWords(3)
	store := newStoreWithFailedReload(t, words)

	store.StartReviewMode(words[:1])
	got := store.State()
	assert.Empty(t, got.Error)
	assert.True(t, got.IsReviewMode)
	assert.Equal(t, words[:1], got.Words)
}

func TestStore_ResetAll(t *testing.T) {
	store := newLoadedStore(t, testWords(3))
	store.SubmitAnswer("x")
	store.StartReviewMode(testWords(1))

	store.ResetAll()
	assert.Equal(t, State{}, store.State())
}

func TestStore_ReviewMode(t *testing.T) {
	words := testWords(3)
	store := newLoadedStore(t, words)
	for i := range words {
		require.True(t, store.GoToWord(i))
		store.SubmitAnswer("wrong")
	}

	wordA, wordC := words[0], words[2]
	store.StartReviewMode([]spelling.Word{wordA, wordC})

	got := store.State()
	assert.Equal(t, []spelling.Word{wordA, wordC}, got.Words)
	assert.Empty(t, got.Answers)
	assert.Equal(t, 0, got.CurrentIndex)
	assert.True(t, got.IsReviewMode)

	store.SubmitAnswer(wordA.Word)
	store.EndReviewMode()
	got = store.State()
	assert.False(t, got.IsReviewMode)
	assert.Equal(t, []spelling.Word{wordA, wordC}, got.Words)
	assert.Len(t, got.Answers, 1)
}

func TestStore_RestoreSession(t *testing.T) {
	store := newLoadedStore(t, testWords(3))
	answers := []spelling.Answer{{WordID: 1, UserAnswer: "apple", IsCorrect: true, CorrectWord: "apple"}}

	store.RestoreSession(2, answers)
	got := store.State()
	assert.Equal(t, 2, got.CurrentIndex)
	assert.Equal(t, answers, got.Answers)

	store.RestoreSession(5, answers)
	assert.Equal(t, 0, store.State().CurrentIndex)
}

func TestStore_Subscribe(t *testing.T) {
	store := NewStore(nil)

	var got []EventType
	unsubscribe := store.Subscribe(func(event EventType, state State) {
		got = append(got, event)
		assert.Equal(t, state, store.State())
	})

	store.SetConfig(true, 1, 10)
	store.ResetAll()
	unsubscribe()
	store.SetConfig(false, 1, 10)

	assert.Equal(t, []EventType{EventConfigChanged, EventAllReset}, got)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := newLoadedStore(t, testWords(2))
	snapshot := store.State()
	snapshot.Words[0].Word = "mutated"

	assert.NotEqual(t, "mutated", store.State().Words[0].Word)
}

func TestStore_ConcurrentSubmit(t *testing.T) {
	store := newLoadedStore(t, testWords(2))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.SubmitAnswer("x")
		}()
	}
	wg.Wait()
	assert.Len(t, store.State().Answers, 20)
}
