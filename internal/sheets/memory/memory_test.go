package memory

import (
	"context"
	"errors"
	"testing"

	"financeiro/internal/finance"
)

func TestWriterStoresTables(t *testing.T) {
	w := New()
	if _, ok := w.Last(); ok {
		t.Fatalf("expected no table before the first write")
	}

	months := []finance.MonthSummary{{Month: "2025-03"}, {Month: "2025-02"}}
	ref, err := w.WriteMonthlyResume(context.Background(), months)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}

	last, ok := w.Last()
	if !ok || len(last.Rows) != 2 || last.Rows[0][0] != "2025-03" {
		t.Fatalf("unexpected table: %+v", last)
	}
	if w.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", w.Writes())
	}
}

func TestWriterFailWith(t *testing.T) {
	w := New()
	boom := errors.New("quota exceeded")
	w.FailWith(boom)

	if _, err := w.WriteMonthlyResume(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	w.FailWith(nil)
	if _, err := w.WriteMonthlyResume(context.Background(), nil); err != nil {
		t.Fatalf("expected success after reset, got %v", err)
	}
}
