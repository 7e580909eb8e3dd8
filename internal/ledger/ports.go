// Package ledger defines where the raw ledger document lives.
//
// Stores hold the canonical JSON document written by the ingest package;
// typed snapshots are derived from it on every load.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Load before anything has been saved.
var ErrNotFound = errors.New("ledger not found")

// Document is one saved version of the ledger.
type Document struct {
	Revision int64
	Raw      []byte
	SavedAt  time.Time
}

// Tag identifies the exact content of the document for caching. It
// changes with every save and, for file-backed stores, with every edit
// made outside the application.
func (d Document) Tag() string {
	return fmt.Sprintf("%d-%d", d.Revision, d.SavedAt.UnixNano())
}

// RevisionInfo describes a saved revision without its content.
type RevisionInfo struct {
	Revision int64     `json:"revision"`
	SavedAt  time.Time `json:"savedAt"`
	Size     int       `json:"size"`
}

// Ports for ledger storage adapters.
type (
	Store interface {
		Load(ctx context.Context) (Document, error)
		Save(ctx context.Context, raw []byte) (Document, error)
	}

	// HistoryReader lists past revisions, newest first.
	HistoryReader interface {
		History(ctx context.Context, limit int) ([]RevisionInfo, error)
	}
)
