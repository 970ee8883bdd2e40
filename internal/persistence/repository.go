// Package persistence saves spelling sessions, user defaults and history to a key-value storage.
// Every operation is best effort: failures are logged and reported as false or an empty result,
// never returned to the quiz flow.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/at-ishikawa/spellingtrainer/internal/spelling"
	"github.com/at-ishikawa/spellingtrainer/internal/storage"
)

const (
	SessionKey = "spelltrainer_spelling_state"
	ConfigKey  = "spelltrainer_spelling_config"
	HistoryKey = "spelltrainer_spelling_history"

	DefaultSessionValidity = 24 * time.Hour
	MaxHistoryEntries      = 10
)

// Keys returns every storage key the repository writes.
func Keys() []string {
	return []string{SessionKey, ConfigKey, HistoryKey}
}

// PersistedSession is the part of a session that survives a restart.
// Words are not stored; they are fetched again for the range.
type PersistedSession struct {
	StartRange    int               `json:"startRange"`
	EndRange      int               `json:"endRange"`
	CurrentIndex  int               `json:"currentIndex"`
	Answers       []spelling.Answer `json:"answers"`
	ShowImages    bool              `json:"showImages"`
	StartedAt     time.Time         `json:"startedAt"`
	LastUpdatedAt time.Time         `json:"lastUpdatedAt"`
}

type UserConfig struct {
	DefaultStartRange int  `json:"defaultStartRange"`
	DefaultEndRange   int  `json:"defaultEndRange"`
	DefaultShowImages bool `json:"defaultShowImages"`
}

type HistoryEntry struct {
	ID              string    `json:"id"`
	StartRange      int       `json:"startRange"`
	EndRange        int       `json:"endRange"`
	TotalWords      int       `json:"totalWords"`
	CorrectWords    int       `json:"correctWords"`
	AccuracyPct     int       `json:"accuracy"`
	CompletedAt     time.Time `json:"completedAt"`
	DurationSeconds int       `json:"duration"`
}

type HistoryStats struct {
	TotalSessions   int `json:"totalSessions"`
	TotalWords      int `json:"totalWords"`
	TotalCorrect    int `json:"totalCorrect"`
	AverageAccuracy int `json:"averageAccuracy"`
	BestAccuracy    int `json:"bestAccuracy"`
}

// Info summarizes what is currently stored.
type Info struct {
	HasSession     bool `json:"hasSession"`
	HasConfig      bool `json:"hasConfig"`
	HistoryCount   int  `json:"historyCount"`
	IsSessionValid bool `json:"isSessionValid"`
}

type Option func(*Repository)

func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

func WithSessionValidity(validity time.Duration) Option {
	return func(r *Repository) {
		r.validity = validity
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) {
		r.newID = newID
	}
}

type Repository struct {
	storage  storage.Storage
	now      func() time.Time
	validity time.Duration
	newID    func() string
}

func NewRepository(s storage.Storage, opts ...Option) *Repository {
	r := &Repository{
		storage:  s,
		now:      time.Now,
		validity: DefaultSessionValidity,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.newID == nil {
		r.newID = r.historyID
	}
	return r
}

// historyID is "<unix-ms>_<first 8 chars of a uuid>".
func (r *Repository) historyID() string {
	return fmt.Sprintf("%d_%s", r.now().UnixMilli(), uuid.NewString()[:8])
}

// DefaultConfig is used when no user defaults have been saved.
func DefaultConfig() UserConfig {
	return UserConfig{
		DefaultStartRange: 1,
		DefaultEndRange:   100,
		DefaultShowImages: true,
	}
}

// SaveSession stores the session with LastUpdatedAt set to the current time.
func (r *Repository) SaveSession(session PersistedSession) bool {
	session.LastUpdatedAt = r.now()
	return r.setJSON(SessionKey, session)
}

// LoadSession returns nil when nothing is stored or the stored value cannot be decoded.
func (r *Repository) LoadSession() *PersistedSession {
	var session PersistedSession
	if !r.getJSON(SessionKey, &session) {
		return nil
	}
	return &session
}

func (r *Repository) ClearSession() bool {
	return r.remove(SessionKey)
}

// IsSessionValid reports whether session was updated within the validity window.
func (r *Repository) IsSessionValid(session *PersistedSession) bool {
	if session == nil {
		return false
	}
	return r.now().Sub(session.LastUpdatedAt) < r.validity
}

// LoadValidSession returns the stored session only when it is still valid.
func (r *Repository) LoadValidSession() *PersistedSession {
	session := r.LoadSession()
	if !r.IsSessionValid(session) {
		return nil
	}
	return session
}

func (r *Repository) SaveConfig(config UserConfig) bool {
	return r.setJSON(ConfigKey, config)
}

func (r *Repository) LoadConfig() *UserConfig {
	var config UserConfig
	if !r.getJSON(ConfigKey, &config) {
		return nil
	}
	return &config
}

// LoadConfigOrDefault falls back to DefaultConfig.
func (r *Repository) LoadConfigOrDefault() UserConfig {
	if config := r.LoadConfig(); config != nil {
		return *config
	}
	return DefaultConfig()
}

// SaveHistory prepends entry with a new ID and keeps the newest MaxHistoryEntries entries.
func (r *Repository) SaveHistory(entry HistoryEntry) (HistoryEntry, bool) {
	entry.ID = r.newID()
	history := append([]HistoryEntry{entry}, r.LoadHistory()...)
	if len(history) > MaxHistoryEntries {
		history = history[:MaxHistoryEntries]
	}
	return entry, r.setJSON(HistoryKey, history)
}

// LoadHistory returns the entries newest first, or an empty list.
func (r *Repository) LoadHistory() []HistoryEntry {
	var history []HistoryEntry
	if !r.getJSON(HistoryKey, &history) || history == nil {
		return []HistoryEntry{}
	}
	return history
}

func (r *Repository) ClearHistory() bool {
	return r.remove(HistoryKey)
}

func (r *Repository) HistoryStats() HistoryStats {
	history := r.LoadHistory()
	if len(history) == 0 {
		return HistoryStats{}
	}

	stats := HistoryStats{TotalSessions: len(history)}
	accuracySum := 0
	for _, entry := range history {
		stats.TotalWords += entry.TotalWords
		stats.TotalCorrect += entry.CorrectWords
		accuracySum += entry.AccuracyPct
		stats.BestAccuracy = max(stats.BestAccuracy, entry.AccuracyPct)
	}
	stats.AverageAccuracy = int(math.Round(float64(accuracySum) / float64(len(history))))
	return stats
}

// ClearAll removes the session, the user defaults and the history.
// Every key is attempted even when an earlier removal fails.
func (r *Repository) ClearAll() bool {
	results := []bool{
		r.ClearSession(),
		r.remove(ConfigKey),
		r.ClearHistory(),
	}
	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}

func (r *Repository) Info() Info {
	session := r.LoadSession()
	return Info{
		HasSession:     session != nil,
		HasConfig:      r.LoadConfig() != nil,
		HistoryCount:   len(r.LoadHistory()),
		IsSessionValid: r.IsSessionValid(session),
	}
}

func (r *Repository) setJSON(key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("failed to encode a stored value", "key", key, "error", err)
		return false
	}
	if err := r.storage.Set(key, string(data)); err != nil {
		slog.Error("failed to save a stored value", "key", key, "error", err)
		return false
	}
	return true
}

func (r *Repository) getJSON(key string, value any) bool {
	data, err := r.storage.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		slog.Error("failed to load a stored value", "key", key, "error", err)
		return false
	}
	if data == "" {
		return false
	}
	if err := json.Unmarshal([]byte(data), value); err != nil {
		slog.Error("failed to decode a stored value", "key", key, "error", err)
		return false
	}
	return true
}

func (r *Repository) remove(key string) bool {
	if err := r.storage.Remove(key); err != nil {
		slog.Error("failed to remove a stored value", "key", key, "error", err)
		return false
	}
	return true
}
