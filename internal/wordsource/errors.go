package wordsource

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type FetchErrorKind string

const (
	FetchErrorTimeout   FetchErrorKind = "timeout"
	FetchErrorNetwork   FetchErrorKind = "network"
	FetchErrorServer    FetchErrorKind = "server"
	FetchErrorMalformed FetchErrorKind = "malformed"
)

// FetchError is returned when words cannot be retrieved from the API.
// Its message is meant to be shown to the learner.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrorTimeout:
		return "request timed out, please try again"
	case FetchErrorNetwork:
		return "network error, please check your connection"
	case FetchErrorServer:
		return fmt.Sprintf("server error: %d", e.StatusCode)
	case FetchErrorMalformed:
		return "unexpected response format from the words API"
	}
	return "failed to fetch words"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) retryable() bool {
	switch e.Kind {
	case FetchErrorTimeout, FetchErrorNetwork:
		return true
	case FetchErrorServer:
		return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func classifyTransportError(err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: FetchErrorTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: FetchErrorTimeout, Err: err}
	}
	return &FetchError{Kind: FetchErrorNetwork, Err: err}
}

func isRetryableError(err error) bool {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return false
	}
	return fetchErr.retryable()
}
