package backend

import (
	"context"

	"ledger/internal/slot"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Close lets a CleanupFunc be registered wherever an io.Closer is expected.
func (f CleanupFunc) Close() error {
	if f == nil {
		return nil
	}
	return f()
}

// BackendResult contains the slot instance and optional cleanup function
type BackendResult struct {
	Slot    slot.Slot
	Type    BackendType
	Cleanup CleanupFunc
}

// Factory creates slot backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// file and memory: directory of <key>.json files
	DataDirectory string

	// sqlite
	SQLiteDBPath string

	// redis
	RedisURL    string
	RedisPrefix string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, RedisBackend:
		return true
	default:
		return false
	}
}
