package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"financeiro/internal/export"
	"financeiro/internal/ledger"
	"financeiro/internal/ledger/file"
	"financeiro/internal/services"
)

const testLedger = `{
	"revenues": [
		{"id": "r1", "date": "2025-03-05", "value": 1000, "origin": "store"},
		{"id": "r2", "date": "2025-02-10", "value": 400, "origin": "transport"}
	],
	"directCosts": [{"id": "d1", "date": "2025-03-06", "value": 250, "origin": "store"}],
	"loans": [{"id": "l1", "bank": "Caixa", "totalValue": 1200, "totalInstallments": 12, "paidInstallments": 3, "origin": "store"}]
}`

type memoryStore struct {
	doc ledger.Document
	set bool
}

func (m *memoryStore) Load(context.Context) (ledger.Document, error) {
	if !m.set {
		return ledger.Document{}, ledger.ErrNotFound
	}
	return m.doc, nil
}

func (m *memoryStore) Save(_ context.Context, raw []byte) (ledger.Document, error) {
	m.doc = ledger.Document{Revision: m.doc.Revision + 1, Raw: raw}
	m.set = true
	return m.doc, nil
}

func newTestServer(t *testing.T, store ledger.Store) *Server {
	t.Helper()
	srv := NewServerWithOptions(":0", services.NewReportService(store, nil, nil, nil), nil, Options{WritesPerMinute: 5})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || decode(t, rr)["status"] != "ok" {
		t.Fatalf("healthz: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	rr = do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusOK || decode(t, rr)["status"] != "ready" {
		t.Fatalf("readyz: %d %s", rr.Code, rr.Body.String())
	}
}

func TestReadyz_BrokenLedger(t *testing.T) {
	store := &memoryStore{doc: ledger.Document{Revision: 1, Raw: []byte("not json")}, set: true}
	srv := newTestServer(t, store)

	rr := do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestPutLedgerThenReports(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})

	rr := do(t, srv, http.MethodPut, "/api/ledger", testLedger)
	if rr.Code != http.StatusOK {
		t.Fatalf("put: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Ledger-Revision") != "1" {
		t.Errorf("revision header = %q", rr.Header().Get("X-Ledger-Revision"))
	}

	rr = do(t, srv, http.MethodGet, "/api/dre", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dre: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr)["totalRevenue"]; got != "1400" {
		t.Errorf("totalRevenue = %v, want 1400", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/dre?start=2025-03-01&end=2025-03-31", "")
	if got := decode(t, rr)["totalRevenue"]; got != "1000" {
		t.Errorf("march totalRevenue = %v, want 1000", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/loans", "")
	if got := decode(t, rr)["totalBalance"]; got != "900" {
		t.Errorf("totalBalance = %v, want 900", got)
	}

	for _, path := range []string{"/api/cashflow", "/api/overdue", "/api/dashboard"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Errorf("%s: %d %s", path, rr.Code, rr.Body.String())
		}
	}

	rr = do(t, srv, http.MethodGet, "/api/monthly", "")
	var months []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &months); err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(months) != 2 || months[0]["month"] != "2025-03" {
		t.Errorf("unexpected monthly resume %v", months)
	}
}

func TestGetLedger_RoundTrips(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})
	do(t, srv, http.MethodPut, "/api/ledger", testLedger)

	rr := do(t, srv, http.MethodGet, "/api/ledger", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: %d", rr.Code)
	}
	doc := decode(t, rr)
	revenues, ok := doc["revenues"].([]any)
	if !ok || len(revenues) != 2 {
		t.Fatalf("unexpected revenues %v", doc["revenues"])
	}

	rr = do(t, srv, http.MethodPut, "/api/ledger", rr.Body.String())
	if rr.Code != http.StatusOK || rr.Header().Get("X-Ledger-Revision") != "2" {
		t.Fatalf("re-put: %d %s", rr.Code, rr.Body.String())
	}
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})

	tests := []struct {
		name, method, target, body string
	}{
		{"bad start", http.MethodGet, "/api/dre?start=yesterday", ""},
		{"bad end", http.MethodGet, "/api/cashflow?end=2025-13-01", ""},
		{"bad export period", http.MethodGet, "/api/export.xlsx?start=x", ""},
		{"not an object", http.MethodPut, "/api/ledger", `[1,2]`},
		{"collection not an array", http.MethodPut, "/api/ledger", `{"revenues": {"id": "r1"}}`},
		{"empty body", http.MethodPut, "/api/ledger", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.target, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d %s", rr.Code, rr.Body.String())
			}
			if decode(t, rr)["error"] == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestBadPeriod_ReportsField(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})
	rr := do(t, srv, http.MethodGet, "/api/dre?start=yesterday", "")

	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body.Fields["start"]; !ok {
		t.Errorf("expected start field error, got %+v", body)
	}
	if body.RequestID == "" {
		t.Error("error body should carry the request id")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})
	if rr := do(t, srv, http.MethodDelete, "/api/ledger", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestHistory(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})
	if rr := do(t, srv, http.MethodGet, "/api/ledger/history", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("memory store has no history, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/ledger/history?limit=abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	srv := newTestServer(t, file.New(filepath.Join(t.TempDir(), "ledger.json")))
	do(t, srv, http.MethodPut, "/api/ledger", testLedger)

	rr := do(t, srv, http.MethodGet, "/api/export.xlsx?start=2025-03-01&end=2025-03-31", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != xlsxContentType {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "financeiro-20250301-20250331.xlsx") {
		t.Errorf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if got := f.GetSheetList(); len(got) != 3 || got[2] != export.SheetMonthly {
		t.Errorf("sheets = %v", got)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})

	var last int
	for i := 0; i < 6; i++ {
		last = do(t, srv, http.MethodPut, "/api/ledger", `{}`).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("sixth write should be limited, got %d", last)
	}
	// reads are not limited
	if rr := do(t, srv, http.MethodGet, "/api/loans", ""); rr.Code != http.StatusOK {
		t.Fatalf("read after limit: %d", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, &memoryStore{})
	do(t, srv, http.MethodGet, "/api/dre", "")
	do(t, srv, http.MethodGet, "/api/dre?start=bad", "")

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	body := rr.Body.String()
	for _, want := range []string{"http_requests_total 2", "http_client_errors_total 1", "report_cache_entries"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}
