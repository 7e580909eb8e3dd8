package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financeiro/internal/log"
	"financeiro/internal/middleware/ratelimit"
	"financeiro/internal/middleware/security"
	"financeiro/internal/middleware/trace"
	"financeiro/internal/services"
)

// Server exposes the report service as a JSON API.
type Server struct {
	http.Server
	reports *services.ReportService
	logger  *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// Options tune the server. Zero values get defaults.
type Options struct {
	// WritesPerMinute limits ledger saves and workbook downloads per client.
	WritesPerMinute int
	TrustedProxies  []string
}

// NewServer configures routes and middleware, returning a ready-to-run
// server with the default options.
func NewServer(addr string, reports *services.ReportService, logger *log.Logger) *Server {
	return NewServerWithOptions(addr, reports, logger, Options{})
}

func NewServerWithOptions(addr string, reports *services.ReportService, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		reports:  reports,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.WritesPerMinute}),
		detector: security.NewDetector(),
		tracer:   trace.NewMiddleware(),
		started:  time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/dre", s.handleDRE)
	mux.HandleFunc("GET /api/cashflow", s.handleCashFlow)
	mux.HandleFunc("GET /api/loans", s.handleLoans)
	mux.HandleFunc("GET /api/monthly", s.handleMonthly)
	mux.HandleFunc("GET /api/overdue", s.handleOverdue)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/ledger", s.handleGetLedger)
	mux.Handle("PUT /api/ledger", limited(http.HandlerFunc(s.handlePutLedger)))
	mux.HandleFunc("GET /api/ledger/history", s.handleHistory)
	mux.Handle("GET /api/export.xlsx", limited(http.HandlerFunc(s.handleExportXLSX)))

	var h http.Handler = mux
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = log.AccessLog(h)
	h = log.RequestIDMiddleware(h)
	h = log.Middleware(logger)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Shutdown stops the rate limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
