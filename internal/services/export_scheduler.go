package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Exporter pushes the latest reports somewhere. exported is false when
// the current ledger version had already been pushed.
type Exporter interface {
	ExportLatest(ctx context.Context) (ref string, exported bool, err error)
}

// ExportSchedulerConfig holds configuration for the periodic export.
type ExportSchedulerConfig struct {
	// Interval between exports (default: 15m)
	Interval time.Duration

	// RunOnStart exports once before the first tick (default: true)
	RunOnStart bool
}

func DefaultExportSchedulerConfig() ExportSchedulerConfig {
	return ExportSchedulerConfig{
		Interval:   15 * time.Minute,
		RunOnStart: true,
	}
}

// ExportScheduler runs an Exporter on a fixed interval. It backs up the
// event-driven export when ledger update messages are lost or AMQP is not
// configured at all.
type ExportScheduler struct {
	exporter Exporter
	config   ExportSchedulerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	runs    int
}

func NewExportScheduler(exporter Exporter, config ExportSchedulerConfig) *ExportScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultExportSchedulerConfig().Interval
	}
	return &ExportScheduler{
		exporter: exporter,
		config:   config,
	}
}

// Start begins the export loop. Returns an error if already running.
func (p *ExportScheduler) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export scheduler is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Export scheduler started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current export to finish. The
// scheduler counts as stopped as soon as Stop is called, even if the wait
// times out; later calls return nil.
func (p *ExportScheduler) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.stopCh, p.doneCh = nil, nil
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export scheduler stop timed out")
		return ctx.Err()
	}
}

func (p *ExportScheduler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Runs reports how many export attempts the loop has made.
func (p *ExportScheduler) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func (p *ExportScheduler) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	if p.config.RunOnStart {
		p.runOnce(ctx)
	}

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *ExportScheduler) runOnce(ctx context.Context) {
	p.mu.Lock()
	p.runs++
	p.mu.Unlock()

	ref, exported, err := p.exporter.ExportLatest(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled export failed", "error", err)
		return
	}
	if !exported {
		slog.DebugContext(ctx, "Scheduled export skipped, ledger unchanged")
		return
	}
	slog.InfoContext(ctx, "Scheduled export completed", "sheets_ref", ref)
}
