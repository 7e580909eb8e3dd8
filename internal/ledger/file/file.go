// Package file stores the ledger as a single flat JSON file, the format
// the bookkeeping front end reads and writes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"financeiro/internal/ledger"
)

// Store keeps the document at path and its revision counter in a small
// sidecar file next to it.
type Store struct {
	mu   sync.Mutex
	path string
}

type sidecar struct {
	Revision int64     `json:"revision"`
	SavedAt  time.Time `json:"savedAt"`
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) revPath() string { return s.path + ".rev" }

// Load returns the current document. SavedAt is the file's modification
// time so edits made by other tools are picked up.
func (s *Store) Load(_ context.Context) (ledger.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ledger.Document{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Document{}, fmt.Errorf("read ledger file: %w", err)
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return ledger.Document{}, fmt.Errorf("stat ledger file: %w", err)
	}

	return ledger.Document{
		Revision: s.readRevision().Revision,
		Raw:      raw,
		SavedAt:  info.ModTime().UTC(),
	}, nil
}

// Save replaces the document atomically and bumps the revision.
func (s *Store) Save(_ context.Context, raw []byte) (ledger.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return ledger.Document{}, fmt.Errorf("create ledger directory: %w", err)
	}

	rev := s.readRevision()
	rev.Revision++
	rev.SavedAt = time.Now().UTC()

	if err := writeAtomic(s.path, raw); err != nil {
		return ledger.Document{}, fmt.Errorf("write ledger file: %w", err)
	}
	meta, err := json.Marshal(rev)
	if err != nil {
		return ledger.Document{}, fmt.Errorf("encode revision: %w", err)
	}
	if err := writeAtomic(s.revPath(), meta); err != nil {
		return ledger.Document{}, fmt.Errorf("write revision file: %w", err)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return ledger.Document{}, fmt.Errorf("stat ledger file: %w", err)
	}
	return ledger.Document{
		Revision: rev.Revision,
		Raw:      append([]byte(nil), raw...),
		SavedAt:  info.ModTime().UTC(),
	}, nil
}

// readRevision never fails: a missing or corrupt sidecar restarts the
// count at zero.
func (s *Store) readRevision() sidecar {
	var rev sidecar
	b, err := os.ReadFile(s.revPath())
	if err != nil {
		return rev
	}
	if err := json.Unmarshal(b, &rev); err != nil {
		return sidecar{}
	}
	return rev
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
