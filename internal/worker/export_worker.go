package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"financeiro/internal/amqp"
	"financeiro/internal/services"
	"financeiro/internal/sheets"
	"financeiro/internal/storage"
)

// ExportRecorder remembers which ledger revision was last pushed to a
// target. The SQLite repository implements it; without one the worker
// only remembers within the process.
type ExportRecorder interface {
	MarkExported(ctx context.Context, revision int64, target, ref string) error
	LastExport(ctx context.Context, target string) (storage.ExportRecord, bool, error)
}

// ExportWorker pushes the monthly resume of the current ledger to a
// report writer, once per ledger version.
type ExportWorker struct {
	reports  *services.ReportService
	writer   sheets.ReportWriter
	recorder ExportRecorder
	target   string

	mu      sync.Mutex
	lastTag string
}

func NewExportWorker(reports *services.ReportService, writer sheets.ReportWriter, recorder ExportRecorder, target string) *ExportWorker {
	if target == "" {
		target = "sheets"
	}
	return &ExportWorker{
		reports:  reports,
		writer:   writer,
		recorder: recorder,
		target:   target,
	}
}

// HandleLedgerUpdated processes one ledger update message from AMQP. It
// exports the current ledger rather than the announced revision, so a
// backlog of messages collapses into a single push.
func (w *ExportWorker) HandleLedgerUpdated(ctx context.Context, msg *amqp.LedgerUpdatedMessage) error {
	slog.InfoContext(ctx, "Processing ledger update",
		"revision", msg.Revision,
		"tag", msg.Tag)

	if _, _, err := w.ExportLatest(ctx); err != nil {
		return fmt.Errorf("export revision %d: %w", msg.Revision, err)
	}
	return nil
}

// ExportLatest implements services.Exporter.
func (w *ExportWorker) ExportLatest(ctx context.Context) (string, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	months, st, err := w.reports.MonthlyWithState(ctx)
	if err != nil {
		return "", false, fmt.Errorf("compute monthly resume: %w", err)
	}

	if st.Tag == w.lastTag {
		return "", false, nil
	}
	if w.recorder != nil && st.Revision > 0 {
		last, ok, err := w.recorder.LastExport(ctx, w.target)
		if err != nil {
			slog.WarnContext(ctx, "Could not read last export, exporting anyway", "error", err)
		} else if ok && last.Revision == st.Revision {
			w.lastTag = st.Tag
			return last.Ref, false, nil
		}
	}

	ref, err := w.writer.WriteMonthlyResume(ctx, months)
	if err != nil {
		return "", false, fmt.Errorf("write monthly resume: %w", err)
	}
	w.lastTag = st.Tag

	if w.recorder != nil && st.Revision > 0 {
		if err := w.recorder.MarkExported(ctx, st.Revision, w.target, ref); err != nil {
			// the export itself worked
			slog.ErrorContext(ctx, "Failed to record export", "revision", st.Revision, "error", err)
		}
	}

	slog.InfoContext(ctx, "Monthly resume exported",
		"revision", st.Revision,
		"months", len(months),
		"sheets_ref", ref)

	return ref, true, nil
}

// StartupExportCheck pushes the current ledger if it changed while the
// worker was down.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	ref, exported, err := w.ExportLatest(ctx)
	if err != nil {
		return fmt.Errorf("startup export: %w", err)
	}
	if exported {
		slog.InfoContext(ctx, "Startup export completed", "sheets_ref", ref)
	} else {
		slog.InfoContext(ctx, "Reports already up to date on startup")
	}
	return nil
}
