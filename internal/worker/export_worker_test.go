package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"financeiro/internal/amqp"
	"financeiro/internal/ledger/file"
	"financeiro/internal/services"
	"financeiro/internal/sheets/memory"
	"financeiro/internal/storage"
)

const ledgerDoc = `{"revenues":[{"date":"2025-03-05","value":100,"origin":"store"},{"date":"2025-01-05","value":50,"origin":"transport"}]}`

func TestExportWorker_ExportsOncePerVersion(t *testing.T) {
	ctx := context.Background()
	reports := services.NewReportService(file.New(filepath.Join(t.TempDir(), "ledger.json")), nil, nil, nil)
	writer := memory.New()
	w := NewExportWorker(reports, writer, nil, "")

	if _, err := reports.SaveLedger(ctx, []byte(ledgerDoc)); err != nil {
		t.Fatalf("save: %v", err)
	}

	ref, exported, err := w.ExportLatest(ctx)
	if err != nil || !exported || ref != "mem:1" {
		t.Fatalf("unexpected first export: ref=%q exported=%v err=%v", ref, exported, err)
	}
	table, _ := writer.Last()
	if len(table.Rows) != 2 || table.Rows[0][0] != "2025-03" {
		t.Fatalf("unexpected exported table %+v", table.Rows)
	}

	if _, exported, _ := w.ExportLatest(ctx); exported {
		t.Fatalf("expected unchanged ledger to be skipped")
	}

	if _, err := reports.SaveLedger(ctx, []byte(`{}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := w.HandleLedgerUpdated(ctx, amqp.NewLedgerUpdatedMessage(2, "")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if writer.Writes() != 2 {
		t.Fatalf("expected 2 writes, got %d", writer.Writes())
	}
}

func TestExportWorker_WriterFailure(t *testing.T) {
	ctx := context.Background()
	reports := services.NewReportService(file.New(filepath.Join(t.TempDir(), "ledger.json")), nil, nil, nil)
	writer := memory.New()
	writer.FailWith(errors.New("quota exceeded"))
	w := NewExportWorker(reports, writer, nil, "sheets")

	if err := w.HandleLedgerUpdated(ctx, amqp.NewLedgerUpdatedMessage(1, "")); err == nil {
		t.Fatalf("expected the failure to surface so the message is requeued")
	}

	writer.FailWith(nil)
	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if writer.Writes() != 1 {
		t.Fatalf("expected a retry to export, got %d writes", writer.Writes())
	}
}

func TestExportWorker_RecorderSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "financeiro.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	reports := services.NewReportService(repo, nil, nil, nil)
	if _, err := reports.SaveLedger(ctx, []byte(ledgerDoc)); err != nil {
		t.Fatalf("save: %v", err)
	}

	writer := memory.New()
	if _, exported, err := NewExportWorker(reports, writer, repo, "sheets").ExportLatest(ctx); err != nil || !exported {
		t.Fatalf("first export: exported=%v err=%v", exported, err)
	}

	// a new worker process sees the recorded export and skips
	ref, exported, err := NewExportWorker(reports, writer, repo, "sheets").ExportLatest(ctx)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	if exported || ref != "mem:1" {
		t.Fatalf("expected skip with the recorded ref, got ref=%q exported=%v", ref, exported)
	}
	if writer.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", writer.Writes())
	}
}
