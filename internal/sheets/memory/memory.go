package memory

import (
	"context"
	"fmt"
	"sync"

	"financeiro/internal/export"
	"financeiro/internal/finance"
	"financeiro/internal/sheets"
)

var _ sheets.ReportWriter = (*Writer)(nil)

// Writer keeps every exported table in memory. It backs development runs
// without Google credentials and the worker tests.
type Writer struct {
	mu     sync.Mutex
	tables []export.Table
	fail   error
}

func New() *Writer {
	return &Writer{}
}

// WriteMonthlyResume stores the table and returns a synthetic reference.
func (w *Writer) WriteMonthlyResume(_ context.Context, months []finance.MonthSummary) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return "", w.fail
	}
	w.tables = append(w.tables, export.MonthlyResumeTable(months))
	return fmt.Sprintf("mem:%d", len(w.tables)), nil
}

// FailWith makes subsequent writes return err; nil restores normal
// behaviour.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail = err
}

func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tables)
}

// Last returns the most recently written table.
func (w *Writer) Last() (export.Table, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.tables) == 0 {
		return export.Table{}, false
	}
	return w.tables[len(w.tables)-1], true
}
