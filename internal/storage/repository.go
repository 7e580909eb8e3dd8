package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"financeiro/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps every saved ledger revision. The newest row is
// the current ledger.
type SQLiteRepository struct {
	db *sql.DB
}

// ExportRecord is one successful push of a revision to an export target.
type ExportRecord struct {
	Revision   int64
	Target     string
	Ref        string
	ExportedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between concurrent saves
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite ledger ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements ledger.Store
func (r *SQLiteRepository) Load(ctx context.Context) (ledger.Document, error) {
	var (
		doc     ledger.Document
		savedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, document, saved_at FROM ledger_revisions ORDER BY id DESC LIMIT 1`,
	).Scan(&doc.Revision, &doc.Raw, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Document{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Document{}, fmt.Errorf("load ledger revision: %w", err)
	}
	doc.SavedAt = time.Unix(0, savedAt).UTC()
	return doc, nil
}

// Save implements ledger.Store
func (r *SQLiteRepository) Save(ctx context.Context, raw []byte) (ledger.Document, error) {
	savedAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_revisions (document, size, saved_at) VALUES (?, ?, ?)`,
		raw, len(raw), savedAt.UnixNano(),
	)
	if err != nil {
		return ledger.Document{}, fmt.Errorf("insert ledger revision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ledger.Document{}, fmt.Errorf("read revision id: %w", err)
	}

	slog.InfoContext(ctx, "Ledger revision saved to SQLite",
		"revision", id,
		"size", len(raw))

	return ledger.Document{
		Revision: id,
		Raw:      append([]byte(nil), raw...),
		SavedAt:  savedAt,
	}, nil
}

// Revision returns a specific past revision.
func (r *SQLiteRepository) Revision(ctx context.Context, revision int64) (ledger.Document, error) {
	doc := ledger.Document{Revision: revision}
	var savedAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT document, saved_at FROM ledger_revisions WHERE id = ?`, revision,
	).Scan(&doc.Raw, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Document{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Document{}, fmt.Errorf("load revision %d: %w", revision, err)
	}
	doc.SavedAt = time.Unix(0, savedAt).UTC()
	return doc, nil
}

// History implements ledger.HistoryReader
func (r *SQLiteRepository) History(ctx context.Context, limit int) ([]ledger.RevisionInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, size, saved_at FROM ledger_revisions ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger revisions: %w", err)
	}
	defer rows.Close()

	var out []ledger.RevisionInfo
	for rows.Next() {
		var (
			info    ledger.RevisionInfo
			savedAt int64
		)
		if err := rows.Scan(&info.Revision, &info.Size, &savedAt); err != nil {
			return nil, fmt.Errorf("scan ledger revision: %w", err)
		}
		info.SavedAt = time.Unix(0, savedAt).UTC()
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger revisions: %w", err)
	}
	return out, nil
}

// MarkExported records that revision was pushed to target.
func (r *SQLiteRepository) MarkExported(ctx context.Context, revision int64, target, ref string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO report_exports (revision, target, ref, exported_at) VALUES (?, ?, ?, ?)`,
		revision, target, ref, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("mark revision exported: %w", err)
	}

	slog.InfoContext(ctx, "Revision marked as exported",
		"revision", revision,
		"target", target,
		"ref", ref)
	return nil
}

// LastExport returns the most recent export to target, or ok=false when
// there is none.
func (r *SQLiteRepository) LastExport(ctx context.Context, target string) (ExportRecord, bool, error) {
	rec := ExportRecord{Target: target}
	var exportedAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT revision, ref, exported_at FROM report_exports
		 WHERE target = ? ORDER BY revision DESC, id DESC LIMIT 1`, target,
	).Scan(&rec.Revision, &rec.Ref, &exportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRecord{}, false, nil
	}
	if err != nil {
		return ExportRecord{}, false, fmt.Errorf("get last export: %w", err)
	}
	rec.ExportedAt = time.Unix(0, exportedAt).UTC()
	return rec, true, nil
}
