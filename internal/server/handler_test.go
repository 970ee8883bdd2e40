package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_session "github.com/at-ishikawa/spellingtrainer/internal/mocks/session"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
	"github.com/at-ishikawa/spellingtrainer/internal/session"
	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
	"github.com/at-ishikawa/spellingtrainer/internal/storage"
	"github.com/at-ishikawa/spellingtrainer/internal/wordsource"
)

type testServer struct {
	url        string
	store      *session.Store
	repository *persistence.Repository
}

func newTestServer(t *testing.T, source session.WordSource) *testServer {
	t.Helper()

	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	repository := persistence.NewRepository(storage.NewMemoryStorage(), persistence.WithClock(clock))
	store := session.NewStore(source, session.WithSelector(spelling.NewSelector(rand.New(rand.NewPCG(1, 2)))))
	recorder := persistence.NewSessionRecorder(repository, nil)
	t.Cleanup(recorder.Attach(store))

	handler, err := NewSpellingHandler(store, repository, recorder.StartedAt)
	require.NoError(t, err)
	handler.now = clock
	t.Cleanup(handler.Close)

	path, h := NewSpellingServiceHandler(handler)
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{url: srv.URL, store: store, repository: repository}
}

func newFixtureServer(t *testing.T) *testServer {
	t.Helper()
	source, err := wordsource.NewFixtureSource()
	require.NoError(t, err)
	return newTestServer(t, source)
}

func call[Req, Res any](t *testing.T, s *testServer, procedure string, msg *Req) (*Res, error) {
	t.Helper()
	client := connect.NewClient[Req, Res](http.DefaultClient, s.url+procedure, connect.WithCodec(jsonCodec{}))
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func assertConnectError(t *testing.T, err error, wantCode connect.Code, wantMessage string) {
	t.Helper()
	require.Error(t, err)
	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr))
	assert.Equal(t, wantCode, connectErr.Code())
	assert.Contains(t, connectErr.Message(), wantMessage)
}

func TestSpellingHandler_SessionFlow(t *testing.T) {
	s := newFixtureServer(t)

	loaded, err := call[LoadWordsRequest, SessionState](t, s, LoadWordsProcedure, &LoadWordsRequest{Start: 1, End: 1})
	require.NoError(t, err)
	require.NotNil(t, loaded.CurrentWord)
	assert.Equal(t, "abandon", loaded.CurrentWord.Word)
	assert.Equal(t, 100, loaded.Progress)
	assert.False(t, loaded.IsComplete)

	wrong, err := call[SubmitAnswerRequest, SubmitAnswerResponse](t, s, SubmitAnswerProcedure, &SubmitAnswerRequest{Answer: "abandn"})
	require.NoError(t, err)
	assert.Equal(t, spelling.Answer{WordID: 1, UserAnswer: "abandn", IsCorrect: false, CorrectWord: "abandon"}, wrong.Answer)
	assert.Equal(t, spelling.Stats{Total: 1, Correct: 0, Incorrect: 1, AccuracyPct: 0}, wrong.State.Stats)
	require.NotNil(t, s.repository.LoadSession(), "unfinished sessions are saved")

	advanced, err := call[EmptyRequest, AdvanceResponse](t, s, AdvanceProcedure, &EmptyRequest{})
	require.NoError(t, err)
	assert.False(t, advanced.Complete)

	correct, err := call[SubmitAnswerRequest, SubmitAnswerResponse](t, s, SubmitAnswerProcedure, &SubmitAnswerRequest{Answer: "Abandon"})
	require.NoError(t, err)
	assert.True(t, correct.Answer.IsCorrect)
	assert.True(t, correct.State.IsComplete)

	advanced, err = call[EmptyRequest, AdvanceResponse](t, s, AdvanceProcedure, &EmptyRequest{})
	require.NoError(t, err)
	assert.True(t, advanced.Complete)
	assert.Nil(t, s.repository.LoadSession(), "finished sessions are not resumed")

	res, err := call[EmptyRequest, ResultResponse](t, s, GetResultProcedure, &EmptyRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.CorrectWords)
	assert.Equal(t, 1, res.Stats.IncorrectWords)
	assert.Equal(t, 50, res.Stats.AccuracyPct)
	assert.Equal(t, 2, res.Stats.TotalAttempts)
	require.NotNil(t, res.Stats.DurationSeconds)
	assert.Equal(t, 0, *res.Stats.DurationSeconds)
	require.Len(t, res.Incorrect, 1)
	assert.Equal(t, []string{"abandn", "Abandon"}, res.Incorrect[0].UserAnswers)
	assert.Empty(t, res.Correct)
	assert.Len(t, res.All, 1)

	history, err := call[EmptyRequest, HistoryResponse](t, s, GetHistoryProcedure, &EmptyRequest{})
	require.NoError(t, err)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, 50, history.Entries[0].AccuracyPct)
	assert.Equal(t, 1, history.Stats.TotalSessions)

	review, err := call[EmptyRequest, SessionState](t, s, StartReviewProcedure, &EmptyRequest{})
	require.NoError(t, err)
	assert.True(t, review.State.IsReviewMode)
	assert.Empty(t, review.State.Answers)
	assert.Len(t, review.State.Words, 1)

	_, err = call[SubmitAnswerRequest, SubmitAnswerResponse](t, s, SubmitAnswerProcedure, &SubmitAnswerRequest{Answer: "abandon"})
	require.NoError(t, err)
	assert.Len(t, s.repository.LoadHistory(), 1, "review sessions are not added to the history")

	ended, err := call[EmptyRequest, SessionState](t, s, EndReviewProcedure, &EmptyRequest{})
	require.NoError(t, err)
	assert.False(t, ended.State.IsReviewMode)

	reset, err := call[EmptyRequest, SessionState](t, s, ResetSpellingProcedure, &EmptyRequest{})
	require.NoError(t, err)
	assert.Empty(t, reset.State.Answers)
	assert.Equal(t, 0, reset.State.CurrentIndex)

	_, err = call[EmptyRequest, SessionState](t, s, StartReviewProcedure, &EmptyRequest{})
	assertConnectError(t, err, connect.CodeFailedPrecondition, "no missed words to review")

	all, err := call[EmptyRequest, SessionState](t, s, ResetAllProcedure, &EmptyRequest{})
	require.NoError(t, err)
	assert.Empty(t, all.State.Words)
	assert.Nil(t, all.CurrentWord)
	assert.Nil(t, s.repository.LoadSession())
}

func TestSpellingHandler_LoadWords_Errors(t *testing.T) {
	t.Run("invalid range", func(t *testing.T) {
		s := newFixtureServer(t)
		_, err := call[LoadWordsRequest, SessionState](t, s, LoadWordsProcedure, &LoadWordsRequest{Start: 0, End: 5})
		assertConnectError(t, err, connect.CodeInvalidArgument, "range must be between 1 and 1900")

		_, err = call[LoadWordsRequest, SessionState](t, s, LoadWordsProcedure, &LoadWordsRequest{Start: 10, End: 5})
		assertConnectError(t, err, connect.CodeInvalidArgument, "start of the range must not be greater than the end")
	})

	t.Run("fetch failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_session.NewMockWordSource(ctrl)
		source.EXPECT().
			FetchWords(gomock.Any(), 1, 10).
			Return(nil, &wordsource.FetchError{Kind: wordsource.FetchErrorServer, StatusCode: 500})
		s := newTestServer(t, source)

		_, err := call[LoadWordsRequest, SessionState](t, s, LoadWordsProcedure, &LoadWordsRequest{Start: 1, End: 10})
		assertConnectError(t, err, connect.CodeUnavailable, "server error: 500")

		state, err := call[EmptyRequest, SessionState](t, s, GetStateProcedure, &EmptyRequest{})
		require.NoError(t, err)
		assert.Equal(t, "server error: 500", state.State.Error)
		assert.False(t, state.State.IsLoading)
	})
}

func TestSpellingHandler_SubmitAnswer_Errors(t *testing.T) {
	tests := []struct {
		name        string
		load        bool
		answer      string
		wantCode    connect.Code
		wantMessage string
	}{
		{
			name:        "empty answer",
			load:        true,
			answer:      "  ",
			wantCode:    connect.CodeInvalidArgument,
			wantMessage: "answer is required",
		},
		{
			name:        "too long answer",
			load:        true,
			answer:      strings.Repeat("a", spelling.MaxAnswerLength+1),
			wantCode:    connect.CodeInvalidArgument,
			wantMessage: "answer must be at most 100 characters",
		},
		{
			name:        "no words loaded",
			answer:      "abandon",
			wantCode:    connect.CodeFailedPrecondition,
			wantMessage: "no word to answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFixtureServer(t)
			if tt.load {
				require.NoError(t, s.store.LoadWords(context.Background(), 1, 5))
			}

			_, err := call[SubmitAnswerRequest, SubmitAnswerResponse](t, s, SubmitAnswerProcedure, &SubmitAnswerRequest{Answer: tt.answer})
			assertConnectError(t, err, tt.wantCode, tt.wantMessage)
			assert.Empty(t, s.store.State().Answers)
		})
	}
}

func TestSpellingHandler_GoToWord(t *testing.T) {
	s := newFixtureServer(t)
	require.NoError(t, s.store.LoadWords(context.Background(), 1, 5))

	state, err := call[GoToWordRequest, SessionState](t, s, GoToWordProcedure, &GoToWordRequest{Index: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, state.State.CurrentIndex)
	assert.Equal(t, "absorb", state.CurrentWord.Word)

	state, err = call[GoToWordRequest, SessionState](t, s, GoToWordProcedure, &GoToWordRequest{Index: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, state.State.CurrentIndex)

	_, err = call[GoToWordRequest, SessionState](t, s, GoToWordProcedure, &GoToWordRequest{Index: -1})
	assertConnectError(t, err, connect.CodeInvalidArgument, "index must be 0 or greater")
}

func TestSpellingHandler_SetConfig(t *testing.T) {
	tests := []struct {
		name        string
		req         SetConfigRequest
		wantMessage string
		wantDefault *persistence.UserConfig
	}{
		{
			name: "session only",
			req:  SetConfigRequest{ShowImages: false, StartRange: 1521, EndRange: 1600},
		},
		{
			name:        "saved as defaults",
			req:         SetConfigRequest{ShowImages: true, StartRange: 10, EndRange: 20, SaveAsDefault: true},
			wantDefault: &persistence.UserConfig{DefaultStartRange: 10, DefaultEndRange: 20, DefaultShowImages: true},
		},
		{
			name:        "start after end",
			req:         SetConfigRequest{StartRange: 20, EndRange: 10},
			wantMessage: "endRange must be greater than or equal to",
		},
		{
			name:        "out of bounds",
			req:         SetConfigRequest{StartRange: 1, EndRange: 2000},
			wantMessage: "endRange must be 1,900 or less",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFixtureServer(t)
			state, err := call[SetConfigRequest, SessionState](t, s, SetConfigProcedure, &tt.req)
			if tt.wantMessage != "" {
				assertConnectError(t, err, connect.CodeInvalidArgument, tt.wantMessage)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.req.StartRange, state.State.StartRange)
			assert.Equal(t, tt.req.EndRange, state.State.EndRange)
			assert.Equal(t, tt.req.ShowImages, state.State.ShowImages)
			assert.Equal(t, tt.wantDefault, s.repository.LoadConfig())
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORSMiddleware(next, []string{"http://localhost:3000"})

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{name: "allowed origin", method: http.MethodPost, origin: "http://localhost:3000", wantStatus: http.StatusOK, wantOrigin: "http://localhost:3000"},
		{name: "unknown origin", method: http.MethodPost, origin: "http://example.com", wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:3000", wantStatus: http.StatusNoContent, wantOrigin: "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/"+SpellingServiceName+"/GetState", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestJSONCodec(t *testing.T) {
	codec := jsonCodec{}
	assert.Equal(t, "json", codec.Name())

	var req LoadWordsRequest
	require.NoError(t, codec.Unmarshal(nil, &req))
	assert.Equal(t, LoadWordsRequest{}, req)

	require.NoError(t, codec.Unmarshal([]byte(`{"start":3,"end":9}`), &req))
	assert.Equal(t, LoadWordsRequest{Start: 3, End: 9}, req)

	assert.Error(t, codec.Unmarshal([]byte(`{"start":`), &req))

	data, err := codec.Marshal(&GoToWordRequest{Index: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":2}`, string(data))
}
