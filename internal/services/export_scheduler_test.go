package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeExporter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeExporter) ExportLatest(context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	return "mem:1", f.calls == 1, nil
}

func (f *fakeExporter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestDefaultExportSchedulerConfig(t *testing.T) {
	config := DefaultExportSchedulerConfig()
	if config.Interval != 15*time.Minute {
		t.Errorf("expected Interval 15m, got %v", config.Interval)
	}
	if !config.RunOnStart {
		t.Error("expected RunOnStart to default to true")
	}
}

func TestNewExportScheduler_ZeroInterval(t *testing.T) {
	s := NewExportScheduler(&fakeExporter{}, ExportSchedulerConfig{})
	if s.config.Interval != 15*time.Minute {
		t.Errorf("expected default interval, got %v", s.config.Interval)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
}

func TestExportScheduler_RunsAndStops(t *testing.T) {
	exp := &fakeExporter{}
	s := NewExportScheduler(exp, ExportSchedulerConfig{Interval: 10 * time.Millisecond, RunOnStart: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting twice")
	}

	deadline := time.Now().Add(2 * time.Second)
	for exp.Calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if exp.Calls() < 3 {
		t.Fatalf("expected at least 3 exports, got %d", exp.Calls())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after stop")
	}
	if s.Runs() != exp.Calls() {
		t.Errorf("runs %d != exporter calls %d", s.Runs(), exp.Calls())
	}
}

func TestExportScheduler_FailuresKeepRunning(t *testing.T) {
	exp := &fakeExporter{err: errors.New("sheets unavailable")}
	s := NewExportScheduler(exp, ExportSchedulerConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for exp.Calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if exp.Calls() < 2 {
		t.Fatalf("expected the loop to keep going after failures, got %d calls", exp.Calls())
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestExportScheduler_StopNotRunning(t *testing.T) {
	s := NewExportScheduler(&fakeExporter{}, DefaultExportSchedulerConfig())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

type blockingExporter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingExporter) ExportLatest(ctx context.Context) (string, bool, error) {
	close(b.entered)
	<-b.release
	return "", false, nil
}

func TestExportScheduler_StopAfterTimeout(t *testing.T) {
	exp := &blockingExporter{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewExportScheduler(exp, ExportSchedulerConfig{Interval: time.Hour, RunOnStart: true})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-exp.entered

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Stop(stopCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout while the export hangs, got %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should count as stopped after a timed out Stop")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	close(exp.release)
}
