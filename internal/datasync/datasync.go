// Package datasync copies stored entries from one storage driver to another,
// e.g. when moving the saved session and history from the file storage to MySQL.
package datasync

import (
	"errors"
	"fmt"
	"io"

	"github.com/at-ishikawa/spellingtrainer/internal/storage"
)

// SyncOptions controls sync behavior.
type SyncOptions struct {
	DryRun         bool
	UpdateExisting bool
}

// SyncResult holds counts from a sync operation.
type SyncResult struct {
	New     int
	Skipped int
	Updated int
	// Missing counts keys which the source storage does not have.
	Missing int
}

// Syncer copies entries between storages.
type Syncer struct {
	from   storage.Storage
	to     storage.Storage
	writer io.Writer
}

// NewSyncer creates a new Syncer. Progress lines are written to writer.
func NewSyncer(from, to storage.Storage, writer io.Writer) *Syncer {
	return &Syncer{
		from:   from,
		to:     to,
		writer: writer,
	}
}

// Sync copies keys from the source to the destination.
// An entry which already exists in the destination is kept unless opts.UpdateExisting is set.
func (s *Syncer) Sync(keys []string, opts SyncOptions) (*SyncResult, error) {
	result := &SyncResult{}
	for _, key := range keys {
		value, err := s.from.Get(key)
		if errors.Is(err, storage.ErrNotFound) {
			result.Missing++
			_, _ = fmt.Fprintf(s.writer, "  [MISSING] %s\n", key)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s from the source > %w", key, err)
		}

		existing, err := s.to.Get(key)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			result.New++
			_, _ = fmt.Fprintf(s.writer, "  [NEW] %s\n", key)
		case err != nil:
			return nil, fmt.Errorf("get %s from the destination > %w", key, err)
		case existing == value:
			result.Skipped++
			_, _ = fmt.Fprintf(s.writer, "  [SKIP] %s (unchanged)\n", key)
			continue
		case !opts.UpdateExisting:
			result.Skipped++
			_, _ = fmt.Fprintf(s.writer, "  [SKIP] %s (already exists)\n", key)
			continue
		default:
			result.Updated++
			_, _ = fmt.Fprintf(s.writer, "  [UPDATE] %s\n", key)
		}

		if opts.DryRun {
			continue
		}
		if err := s.to.Set(key, value); err != nil {
			return nil, fmt.Errorf("set %s to the destination > %w", key, err)
		}
	}
	return result, nil
}
