package backend

import (
	"context"

	"financeiro/internal/amqp"
	"financeiro/internal/ledger"
	"financeiro/internal/services"
	"financeiro/internal/storage"
	"financeiro/internal/worker"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is a ready ledger store plus the optional pieces that come
// with it.
type BackendResult struct {
	Store ledger.Store

	// SQLite is set for the sqlite backend only.
	SQLite *storage.SQLiteRepository
	// AMQP is nil when AMQP is not configured or unreachable.
	AMQP *amqp.Client

	Cleanup CleanupFunc
}

// Publisher returns the AMQP client as a services.Publisher, or a nil
// interface when there is none.
func (r *BackendResult) Publisher() services.Publisher {
	if r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Recorder returns the export bookkeeping of the backend, or a nil
// interface when the backend keeps none.
func (r *BackendResult) Recorder() worker.ExportRecorder {
	if r.SQLite == nil {
		return nil
	}
	return r.SQLite
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// file
	DataFile string

	// sqlite
	SQLiteDBPath string

	// optional ledger events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
