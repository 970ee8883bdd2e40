package spelling

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxAnswerLength is the longest answer accepted from a user, in characters.
const MaxAnswerLength = 100

type RangeErrorReason int

const (
	RangeNotInteger RangeErrorReason = iota + 1
	RangeOutOfBounds
	RangeStartAfterEnd
)

// RangeError reports why a word range was rejected.
type RangeError struct {
	Reason RangeErrorReason
}

func (e *RangeError) Error() string {
	switch e.Reason {
	case RangeNotInteger:
		return "start and end of the range must be integers"
	case RangeOutOfBounds:
		return fmt.Sprintf("range must be between %d and %d", MinWordID, MaxWordID)
	case RangeStartAfterEnd:
		return "start of the range must not be greater than the end"
	default:
		return "invalid range"
	}
}

type AnswerErrorReason int

const (
	AnswerEmpty AnswerErrorReason = iota + 1
	AnswerTooLong
)

// AnswerError reports why an answer text was rejected.
type AnswerError struct {
	Reason AnswerErrorReason
}

func (e *AnswerError) Error() string {
	switch e.Reason {
	case AnswerEmpty:
		return "answer is required"
	case AnswerTooLong:
		return fmt.Sprintf("answer must be at most %d characters", MaxAnswerLength)
	default:
		return "invalid answer"
	}
}

// ValidateRange checks that [start, end] is a non-empty range inside the vocabulary book.
func ValidateRange(start, end int) error {
	if start < MinWordID || end > MaxWordID {
		return &RangeError{Reason: RangeOutOfBounds}
	}
	if start > end {
		return &RangeError{Reason: RangeStartAfterEnd}
	}
	return nil
}

// ParseRange parses raw user input for a range and validates it.
// Inputs which are not integers are rejected with RangeNotInteger.
func ParseRange(rawStart, rawEnd string) (int, int, error) {
	start, err := strconv.Atoi(strings.TrimSpace(rawStart))
	if err != nil {
		return 0, 0, &RangeError{Reason: RangeNotInteger}
	}
	end, err := strconv.Atoi(strings.TrimSpace(rawEnd))
	if err != nil {
		return 0, 0, &RangeError{Reason: RangeNotInteger}
	}
	if err := ValidateRange(start, end); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// SanitizeNumber parses the leading integer of raw and falls back when there is none.
// "12abc" parses as 12 and "abc" returns fallback.
func SanitizeNumber(raw string, fallback int) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return fallback
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return fallback
	}
	return n
}

func ValidateAnswer(text string) error {
	if strings.TrimSpace(text) == "" {
		return &AnswerError{Reason: AnswerEmpty}
	}
	if utf8.RuneCountInString(text) > MaxAnswerLength {
		return &AnswerError{Reason: AnswerTooLong}
	}
	return nil
}
