package session

import (
	"context"

	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
)

//go:generate mockgen -source=source.go -destination=../mocks/session/mock_source.go -package=mock_session

// WordSource loads the words of an inclusive ID range.
type WordSource interface {
	FetchWords(ctx context.Context, start, end int) ([]spelling.Word, error)
}
