package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"financeiro/internal/cache"
	"financeiro/internal/core"
	"financeiro/internal/export"
	"financeiro/internal/finance"
	"financeiro/internal/ingest"
	"financeiro/internal/ledger"
	"financeiro/internal/log"
)

var (
	ErrHistoryUnsupported = errors.New("ledger history not supported by this backend")
	// ErrCorruptLedger means the stored document no longer parses, usually
	// after an outside edit of the ledger file.
	ErrCorruptLedger = errors.New("stored ledger is corrupt")
)

// Report kinds, used in cache keys and logs.
const (
	KindDRE       = "dre"
	KindCashFlow  = "cashflow"
	KindLoans     = "loans"
	KindMonthly   = "monthly"
	KindOverdue   = "overdue"
	KindDashboard = "dashboard"
	kindSnapshot  = "snapshot"
)

// Publisher announces saved revisions. The AMQP client implements it.
type Publisher interface {
	PublishLedgerUpdated(ctx context.Context, revision int64, tag string) error
}

// LedgerState is the current ledger with its revision.
type LedgerState struct {
	Revision int64
	SavedAt  time.Time
	Tag      string
	Snapshot core.Snapshot
}

// ReportService computes reports from the stored ledger. Results are
// cached per ledger version, report kind and period, so a save or an
// outside edit of the file never serves stale figures.
type ReportService struct {
	store     ledger.Store
	publisher Publisher
	cache     *cache.LRUCache[any]
	logger    *log.Logger
	now       func() time.Time
}

// NewReportService wires the service. publisher may be nil; a nil cache
// gets a small default one.
func NewReportService(store ledger.Store, publisher Publisher, results *cache.LRUCache[any], logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.Discard()
	}
	if results == nil {
		results = cache.NewLRUCache[any](256, 10*time.Minute)
	}
	return &ReportService{
		store:     store,
		publisher: publisher,
		cache:     results,
		logger:    logger.WithComponent(log.ComponentReport),
		now:       time.Now,
	}
}

// Cache exposes the result cache so it can be registered for cleanup.
func (s *ReportService) Cache() *cache.LRUCache[any] {
	return s.cache
}

// state loads the current ledger. A ledger that was never saved is an
// empty snapshot at revision zero.
func (s *ReportService) state(ctx context.Context) (LedgerState, error) {
	doc, err := s.store.Load(ctx)
	if errors.Is(err, ledger.ErrNotFound) {
		return LedgerState{Tag: "empty", Snapshot: core.NewSnapshot()}, nil
	}
	if err != nil {
		return LedgerState{}, fmt.Errorf("load ledger: %w", err)
	}

	st := LedgerState{Revision: doc.Revision, SavedAt: doc.SavedAt, Tag: doc.Tag()}
	key := cacheKey(st.Tag, kindSnapshot, "")
	if v, ok := s.cache.Get(key); ok {
		if snap, ok := v.(core.Snapshot); ok {
			st.Snapshot = snap
			return st, nil
		}
	}

	snap, err := ingest.Parse(doc.Raw)
	if err != nil {
		return LedgerState{}, fmt.Errorf("%w: revision %d: %v", ErrCorruptLedger, doc.Revision, err)
	}
	s.cache.Set(key, snap)
	st.Snapshot = snap
	return st, nil
}

func cacheKey(tag, kind, variant string) string {
	return tag + "|" + kind + "|" + variant
}

// compute returns the cached result for (ledger version, kind, variant)
// or computes and caches it.
func compute[T any](ctx context.Context, s *ReportService, kind, variant string, fn func(core.Snapshot) (T, error)) (T, LedgerState, error) {
	var zero T
	st, err := s.state(ctx)
	if err != nil {
		return zero, st, err
	}

	key := cacheKey(st.Tag, kind, variant)
	if v, ok := s.cache.Get(key); ok {
		if res, ok := v.(T); ok {
			s.logger.DebugContext(ctx, "Report served from cache",
				log.NewFields().WithReport(kind, st.Revision, variant).ToSlice()...)
			return res, st, nil
		}
	}

	start := time.Now()
	res, err := fn(st.Snapshot)
	if err != nil {
		return zero, st, fmt.Errorf("compute %s: %w", kind, err)
	}
	s.cache.Set(key, res)

	s.logger.DebugContext(ctx, "Report computed",
		append(log.NewFields().WithReport(kind, st.Revision, variant).ToSlice(),
			log.FieldDuration, time.Since(start).Milliseconds())...)
	return res, st, nil
}

func (s *ReportService) DRE(ctx context.Context, p finance.Period) (finance.DRESummary, error) {
	res, _, err := compute(ctx, s, KindDRE, p.Key(), func(snap core.Snapshot) (finance.DRESummary, error) {
		return finance.CalculateDRE(snap, p), nil
	})
	return res, err
}

func (s *ReportService) CashFlow(ctx context.Context, p finance.Period) (finance.CashFlowSummary, error) {
	res, _, err := compute(ctx, s, KindCashFlow, p.Key(), func(snap core.Snapshot) (finance.CashFlowSummary, error) {
		return finance.CalculateCashFlow(snap, p), nil
	})
	return res, err
}

func (s *ReportService) Loans(ctx context.Context) (finance.Portfolio, error) {
	res, _, err := compute(ctx, s, KindLoans, "", func(snap core.Snapshot) (finance.Portfolio, error) {
		return finance.LoanPortfolio(snap.Loans), nil
	})
	return res, err
}

func (s *ReportService) Monthly(ctx context.Context) ([]finance.MonthSummary, error) {
	res, _, err := s.MonthlyWithState(ctx)
	return res, err
}

// MonthlyWithState also returns the ledger version the resume was
// computed from, for exporters that record what they pushed.
func (s *ReportService) MonthlyWithState(ctx context.Context) ([]finance.MonthSummary, LedgerState, error) {
	return compute(ctx, s, KindMonthly, "", func(snap core.Snapshot) ([]finance.MonthSummary, error) {
		return finance.MonthlyResume(ctx, snap)
	})
}

// Overdue depends on the current day, which is part of its cache key.
func (s *ReportService) Overdue(ctx context.Context) (finance.OverdueReport, error) {
	now := s.now()
	res, _, err := compute(ctx, s, KindOverdue, now.Format("2006-01-02"), func(snap core.Snapshot) (finance.OverdueReport, error) {
		return finance.Overdue(snap, now), nil
	})
	return res, err
}

func (s *ReportService) Dashboard(ctx context.Context) (finance.DashboardSummary, error) {
	now := s.now()
	res, _, err := compute(ctx, s, KindDashboard, now.Format("2006-01-02"), func(snap core.Snapshot) (finance.DashboardSummary, error) {
		return finance.Dashboard(snap, now), nil
	})
	return res, err
}

// Report gathers everything the XLSX export needs for period p.
func (s *ReportService) Report(ctx context.Context, p finance.Period) (export.Report, error) {
	dre, err := s.DRE(ctx, p)
	if err != nil {
		return export.Report{}, err
	}
	cf, err := s.CashFlow(ctx, p)
	if err != nil {
		return export.Report{}, err
	}
	monthly, err := s.Monthly(ctx)
	if err != nil {
		return export.Report{}, err
	}
	return export.Report{DRE: dre, CashFlow: cf, Monthly: monthly}, nil
}

// Ledger returns the current, sanitized ledger.
func (s *ReportService) Ledger(ctx context.Context) (LedgerState, error) {
	return s.state(ctx)
}

// SaveLedger validates raw, stores its canonical form and announces the
// new revision. Shape errors wrap ingest.ErrInvalidInput and nothing is
// stored. A failed announcement is logged, not returned: the save itself
// succeeded.
func (s *ReportService) SaveLedger(ctx context.Context, raw []byte) (ledger.Document, error) {
	snap, err := ingest.Parse(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected ledger document",
			log.NewFields().WithOperation(log.OpValidate).WithError(err, log.ErrorTypeValidation).ToSlice()...)
		return ledger.Document{}, err
	}
	canonical, err := ingest.Encode(snap)
	if err != nil {
		return ledger.Document{}, fmt.Errorf("encode ledger: %w", err)
	}

	doc, err := s.store.Save(ctx, canonical)
	if err != nil {
		return ledger.Document{}, fmt.Errorf("save ledger: %w", err)
	}
	s.cache.Purge()

	s.logger.InfoContext(ctx, "Ledger saved",
		log.FieldRevision, doc.Revision,
		log.FieldRecords, records(snap))

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerUpdated(ctx, doc.Revision, doc.Tag()); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish ledger update",
				append(log.NewFields().WithOperation(log.OpPublish).WithError(err, log.ErrorTypeNetwork).ToSlice(),
					log.FieldRevision, doc.Revision)...)
		}
	}
	return doc, nil
}

// History lists stored revisions when the backend keeps them.
func (s *ReportService) History(ctx context.Context, limit int) ([]ledger.RevisionInfo, error) {
	h, ok := s.store.(ledger.HistoryReader)
	if !ok {
		return nil, ErrHistoryUnsupported
	}
	return h.History(ctx, limit)
}

func records(s core.Snapshot) int {
	return len(s.Revenues) + len(s.DirectCosts) + len(s.OperationalExpenses) +
		len(s.AccountsPayable) + len(s.AccountsReceivable) + len(s.Loans) + len(s.Cheques)
}
