package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"financeiro/internal/export"
	"financeiro/internal/finance"
	"financeiro/internal/ingest"
	"financeiro/internal/log"
	"financeiro/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that the ledger can be loaded and parsed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]any)

	if st, err := s.reports.Ledger(ctx); err != nil {
		checks["ledger"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		code = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]any{"status": "ok", "revision": st.Revision}
	}

	stats := s.reports.Cache().Stats()
	checks["cache"] = map[string]any{"entries": stats.Size, "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients(), "status": "ok"}

	NewResponse().Status(code).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requests := s.tracer.GetMetrics()
	cacheStats := s.reports.Cache().Stats()
	limits := s.limiter.GetMetrics()
	detections := s.detector.GetMetrics()

	var b bytes.Buffer
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", requests.TotalRequests)
	metric("http_client_errors_total", "counter", "Requests answered with 4xx", requests.ClientErrors)
	metric("http_server_errors_total", "counter", "Requests answered with 5xx", requests.ServerErrors)
	metric("http_requests_in_flight", "gauge", "Requests being served", requests.InFlight)
	metric("http_request_duration_avg_seconds", "gauge", "Mean request duration", requests.AverageResponseTime.Seconds())
	metric("report_cache_hits_total", "counter", "Report cache hits", cacheStats.Hits)
	metric("report_cache_misses_total", "counter", "Report cache misses", cacheStats.Misses)
	metric("report_cache_entries", "gauge", "Current report cache entries", cacheStats.Size)
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limits.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", limits.ClientCount)
	metric("suspicious_requests_total", "counter", "Suspicious requests detected", detections.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))

	NewResponse().Bytes("text/plain; version=0.0.4; charset=utf-8", b.Bytes()).Write(w)
}

func (s *Server) handleDRE(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriodQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, services.KindDRE, err)
		return
	}
	res, err := s.reports.DRE(r.Context(), p)
	s.respond(w, r, services.KindDRE, res, err)
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriodQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, services.KindCashFlow, err)
		return
	}
	res, err := s.reports.CashFlow(r.Context(), p)
	s.respond(w, r, services.KindCashFlow, res, err)
}

func (s *Server) handleLoans(w http.ResponseWriter, r *http.Request) {
	res, err := s.reports.Loans(r.Context())
	s.respond(w, r, services.KindLoans, res, err)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	res, err := s.reports.Monthly(r.Context())
	s.respond(w, r, services.KindMonthly, res, err)
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	res, err := s.reports.Overdue(r.Context())
	s.respond(w, r, services.KindOverdue, res, err)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := s.reports.Dashboard(r.Context())
	s.respond(w, r, services.KindDashboard, res, err)
}

// handleGetLedger returns the stored document in the same shape PUT
// accepts.
func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	st, err := s.reports.Ledger(r.Context())
	if err != nil {
		s.fail(w, r, "ledger", err)
		return
	}
	NewResponse().Revision(st.Revision).JSON(ingest.ToMap(st.Snapshot)).Write(w)
}

func (s *Server) handlePutLedger(w http.ResponseWriter, r *http.Request) {
	raw, err := ReadLedgerBody(w, r)
	if err != nil {
		s.fail(w, r, "ledger", err)
		return
	}
	doc, err := s.reports.SaveLedger(r.Context(), raw)
	if err != nil {
		s.fail(w, r, "ledger", err)
		return
	}
	NewResponse().Revision(doc.Revision).JSON(map[string]any{
		"revision": doc.Revision,
		"savedAt":  doc.SavedAt,
		"size":     len(doc.Raw),
	}).Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q, err := ParseHistoryQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, "history", err)
		return
	}
	res, err := s.reports.History(r.Context(), q.Limit)
	s.respond(w, r, "history", res, err)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriodQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	report, err := s.reports.Report(r.Context(), p)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	// render fully before writing so a failure can still become a 500
	var buf bytes.Buffer
	if err := export.Write(&buf, report); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewResponse().
		Header("Content-Disposition", `attachment; filename="`+exportFilename(p)+`"`).
		Bytes(xlsxContentType, buf.Bytes()).
		Write(w)
}

func exportFilename(p finance.Period) string {
	if !p.Bounded() {
		return "financeiro.xlsx"
	}
	return fmt.Sprintf("financeiro-%s-%s.xlsx", p.Start.UTC().Format("20060102"), p.End.UTC().Format("20060102"))
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, kind string, v any, err error) {
	if err != nil {
		s.fail(w, r, kind, err)
		return
	}
	NewResponse().JSON(v).Write(w)
}

// fail maps an error to its status code. Client errors are answered with
// their message; anything else is logged and hidden behind a generic one.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, kind string, err error) {
	body := ErrorBody{RequestID: log.RequestIDFromContext(r.Context())}
	code := http.StatusInternalServerError

	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		code, body.Error, body.Fields = http.StatusBadRequest, reqErr.Message, reqErr.Fields
	case errors.Is(err, ingest.ErrInvalidInput), errors.Is(err, finance.ErrInvalidPeriod):
		code, body.Error = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrHistoryUnsupported):
		code, body.Error = http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		code, body.Error = http.StatusGatewayTimeout, "request timed out"
	default:
		body.Error = "internal error"
	}

	if code >= 500 {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Request failed",
			append(log.NewFields().WithError(err, log.ErrorTypeInternal).ToSlice(), log.FieldReport, kind)...)
	}
	NewResponse().Status(code).JSON(body).Write(w)
}
