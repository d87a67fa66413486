package backend

import (
	"context"

	"tracker/internal/ledger"
	"tracker/internal/services"
	"tracker/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is a hydrated ledger wired to its store and publisher.
type BackendResult struct {
	Store   storage.KeyValueStore
	Ledger  *ledger.Ledger
	Service *services.TransactionService
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Change events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	IDStrategy string
}

// BackendType represents the type of key-value backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
