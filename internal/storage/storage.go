// Package storage provides the key-value port the persistence layer writes to,
// with in-memory, YAML file and SQL implementations.
package storage

import "errors"

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

//go:generate mockgen -source=storage.go -destination=../mocks/storage/mock_storage.go -package=mock_storage

// Storage is a synchronous string key-value store. Any operation may fail,
// for instance when the backing medium is full or unavailable.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}
