// Package server provides the Connect RPC handlers of the spelling service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/at-ishikawa/spellingtrainer/internal/config"
	"github.com/at-ishikawa/spellingtrainer/internal/persistence"
	"github.com/at-ishikawa/spellingtrainer/internal/result"
	"github.com/at-ishikawa/spellingtrainer/internal/session"
	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
	"github.com/at-ishikawa/spellingtrainer/internal/wordsource"
)

const SpellingServiceName = "spelltrainer.v1.SpellingService"

const (
	LoadWordsProcedure     = "/" + SpellingServiceName + "/LoadWords"
	GetStateProcedure      = "/" + SpellingServiceName + "/GetState"
	SubmitAnswerProcedure  = "/" + SpellingServiceName + "/SubmitAnswer"
	AdvanceProcedure       = "/" + SpellingServiceName + "/Advance"
	GoToWordProcedure      = "/" + SpellingServiceName + "/GoToWord"
	SetConfigProcedure     = "/" + SpellingServiceName + "/SetConfig"
	ResetSpellingProcedure = "/" + SpellingServiceName + "/ResetSpelling"
	ResetAllProcedure      = "/" + SpellingServiceName + "/ResetAll"
	StartReviewProcedure   = "/" + SpellingServiceName + "/StartReview"
	EndReviewProcedure     = "/" + SpellingServiceName + "/EndReview"
	GetResultProcedure     = "/" + SpellingServiceName + "/GetResult"
	GetHistoryProcedure    = "/" + SpellingServiceName + "/GetHistory"
)

// SpellingHandler serves a single session store.
type SpellingHandler struct {
	store      *session.Store
	repository *persistence.Repository
	startedAt  func() time.Time
	now        func() time.Time

	validate    *validator.Validate
	translator  ut.Translator
	unsubscribe func()
}

// NewSpellingHandler creates a handler over store. startedAt reports when the current session started.
// A history entry is saved whenever an answer completes a session which is not a review.
func NewSpellingHandler(
	store *session.Store,
	repository *persistence.Repository,
	startedAt func() time.Time,
) (*SpellingHandler, error) {
	validate, trans, err := config.NewValidator("json")
	if err != nil {
		return nil, fmt.Errorf("config.NewValidator > %w", err)
	}

	h := &SpellingHandler{
		store:      store,
		repository: repository,
		startedAt:  startedAt,
		now:        time.Now,
		validate:   validate,
		translator: trans,
	}
	h.unsubscribe = store.Subscribe(h.recordCompletion)
	return h, nil
}

// Close stops recording history.
func (h *SpellingHandler) Close() {
	h.unsubscribe()
}

// NewSpellingServiceHandler returns the path prefix and the handler of every procedure.
func NewSpellingServiceHandler(h *SpellingHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(LoadWordsProcedure, connect.NewUnaryHandler(LoadWordsProcedure, h.LoadWords, opts...))
	mux.Handle(GetStateProcedure, connect.NewUnaryHandler(GetStateProcedure, h.GetState, opts...))
	mux.Handle(SubmitAnswerProcedure, connect.NewUnaryHandler(SubmitAnswerProcedure, h.SubmitAnswer, opts...))
	mux.Handle(AdvanceProcedure, connect.NewUnaryHandler(AdvanceProcedure, h.Advance, opts...))
	mux.Handle(GoToWordProcedure, connect.NewUnaryHandler(GoToWordProcedure, h.GoToWord, opts...))
	mux.Handle(SetConfigProcedure, connect.NewUnaryHandler(SetConfigProcedure, h.SetConfig, opts...))
	mux.Handle(ResetSpellingProcedure, connect.NewUnaryHandler(ResetSpellingProcedure, h.ResetSpelling, opts...))
	mux.Handle(ResetAllProcedure, connect.NewUnaryHandler(ResetAllProcedure, h.ResetAll, opts...))
	mux.Handle(StartReviewProcedure, connect.NewUnaryHandler(StartReviewProcedure, h.StartReview, opts...))
	mux.Handle(EndReviewProcedure, connect.NewUnaryHandler(EndReviewProcedure, h.EndReview, opts...))
	mux.Handle(GetResultProcedure, connect.NewUnaryHandler(GetResultProcedure, h.GetResult, opts...))
	mux.Handle(GetHistoryProcedure, connect.NewUnaryHandler(GetHistoryProcedure, h.GetHistory, opts...))
	return "/" + SpellingServiceName + "/", mux
}

// LoadWords fetches the words of a range and starts a new session with them.
func (h *SpellingHandler) LoadWords(
	ctx context.Context,
	req *connect.Request[LoadWordsRequest],
) (*connect.Response[SessionState], error) {
	if err := h.store.LoadWords(ctx, req.Msg.Start, req.Msg.End); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(newSessionState(h.store.State())), nil
}

func (h *SpellingHandler) GetState(
	_ context.Context,
	_ *connect.Request[EmptyRequest],
) (*connect.Response[SessionState], error) {
	return connect.NewResponse(newSessionState(h.store.State())), nil
}

// SubmitAnswer grades an answer for the current word. It does not move to the next word.
func (h *SpellingHandler) SubmitAnswer(
	_ context.Context,
	req *connect.Request[SubmitAnswerRequest],
) (*connect.Response[SubmitAnswerResponse], error) {
	if err := spelling.ValidateAnswer(req.Msg.Answer); err != nil {
		return nil, toConnectError(err)
	}

	answer, ok := h.store.SubmitAnswer(req.Msg.Answer)
	if !ok {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("no word to answer"))
	}
	return connect.NewResponse(&SubmitAnswerResponse{
		Answer: answer,
		State:  newSessionState(h.store.State()),
	}), nil
}

func (h *SpellingHandler) Advance(
	_ context.Context,
	_ *connect.Request[EmptyRequest],
) (*connect.Response[AdvanceResponse], error) {
	complete := h.store.Advance()
	return connect.NewResponse(&AdvanceResponse{
		Complete: complete,
		State:    newSessionState(h.store.State()),
	}), nil
}

// GoToWord jumps to a word. An index past the last word leaves the state unchanged.
func (h *SpellingHandler) GoToWord(
	_ context.Context,
	req *connect.Request[GoToWordRequest],
) (*connect.Response[SessionState], error) {
	if err := h.validateRequest(req.Msg); err != nil {
		return nil, err
	}
	h.store.GoToWord(req.Msg.Index)
	return connect.NewResponse(newSessionState(h.store.State())), nil
}

func (h *SpellingHandler) SetConfig(
	_ context.Context,
	req *connect.Request[SetConfigRequest],
) (*connect.Response[SessionState], error) {
	if err := h.validateRequest(req.Msg); err != nil {
		return nil, err
	}

	h.store.SetConfig(req.Msg.ShowImages, req.Msg.StartRange, req.Msg.EndRange)
	if req.Msg.SaveAsDefault {
		h.repository.SaveConfig(persistence.UserConfig{
			DefaultStartRange: req.Msg.StartRange,
			DefaultEndRange:   req.Msg.EndRange,
			DefaultShowImages: req.Msg.ShowImages,
		})
	}
	return connect.NewResponse(newSessionState(h.store.State())), nil
}

func (h *SpellingHandler) ResetSpelling(
	_ context.Context,
	_ *connect.Request[EmptyRequest],
) (*connect.Response[SessionState], error) {
	h.store.ResetSpelling()
	return connect.NewResponse(newSessionState(h.store.State())), nil
}

func (h *SpellingHandler) ResetAll(
	_ context.Context,
	_ *connect.Request[EmptyRequest],
) (*connect.Response[SessionState], error) {
	h.store.ResetAll()
	return connect.NewResponse(newSessionState(h.store.State())), nil
}

// StartReview restarts the session with the words missed at least once.
func (h *SpellingHandler) StartReview(
	_ context.Context,
	_ *connect.Request[EmptyRequest],
) (*connect.Response[SessionState], error) {
	state := h.store.State()
	missed := result.MistakeWords(state.Words, state.Answers)
	if len(missed) == 0 {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("no missed words to review"))
	}

	h.store.StartReviewMode(missed)
	return connect.NewResponse(newSessionState(h.store.State())), nil
}

func (h *SpellingHandler) EndReview(
	_ context.Context,
	_ *connect.Request[EmptyRequest],
) (*connect.Response[SessionState], error) {
	h.store.EndReviewMode()
	return connect.NewResponse(newSessionState(h.store.State())), nil
}

// GetResult summarizes the answers of the current session.
func (h *SpellingHandler) GetResult(
	_ context.Context,
	_ *connect.Request[EmptyRequest],
) (*connect.Response[ResultResponse], error) {
	state := h.store.State()
	return connect.NewResponse(&ResultResponse{
		Stats:     result.CalculateStats(state.Words, state.Answers, h.startedAt(), h.now()),
		Incorrect: result.IncorrectWordStats(state.Words, state.Answers),
		Correct:   result.CorrectWordStats(state.Words, state.Answers),
		All:       result.MistakeStatsByWord(state.Words, state.Answers),
	}), nil
}

func (h *SpellingHandler) GetHistory(
	_ context.Context,
	_ *connect.Request[EmptyRequest],
) (*connect.Response[HistoryResponse], error) {
	return connect.NewResponse(&HistoryResponse{
		Entries: h.repository.LoadHistory(),
		Stats:   h.repository.HistoryStats(),
	}), nil
}

// recordCompletion saves a history entry when the latest answer mastered the last pending word.
// It must be subscribed after the session recorder so the clear follows the recorder's last save.
func (h *SpellingHandler) recordCompletion(event session.EventType, state session.State) {
	if event != session.EventAnswerSubmitted || state.IsReviewMode || !completedByLastAnswer(state) {
		return
	}

	now := h.now()
	stats := result.CalculateStats(state.Words, state.Answers, h.startedAt(), now)
	entry, ok := h.repository.SaveHistory(persistence.NewHistoryEntry(state, stats, now))
	if ok {
		slog.Info("Saved session history", "id", entry.ID, "accuracy", entry.AccuracyPct)
	}
	// A finished session must not be resumed on the next start.
	h.repository.ClearSession()
}

func completedByLastAnswer(state session.State) bool {
	n := len(state.Answers)
	if n == 0 || !state.IsComplete() {
		return false
	}
	return !spelling.IsSessionComplete(state.Words, state.Answers[:n-1])
}

func (h *SpellingHandler) validateRequest(msg any) *connect.Error {
	if err := h.validate.Struct(msg); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, errors.New(config.TranslateValidationErrors(err, h.translator)))
	}
	return nil
}

// toConnectError maps validation errors to InvalidArgument and word fetch errors to Unavailable.
func toConnectError(err error) *connect.Error {
	var rangeErr *spelling.RangeError
	var answerErr *spelling.AnswerError
	var fetchErr *wordsource.FetchError
	switch {
	case errors.As(err, &rangeErr):
		return connect.NewError(connect.CodeInvalidArgument, rangeErr)
	case errors.As(err, &answerErr):
		return connect.NewError(connect.CodeInvalidArgument, answerErr)
	case errors.As(err, &fetchErr):
		return connect.NewError(connect.CodeUnavailable, fetchErr)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
