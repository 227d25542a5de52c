package lifecycle_test

import (
	"context"
	"errors"
	"maps"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/weles/pkg/lifecycle"
)

func TestNotReadyBeforeStartup(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}
}

func TestReadyAfterStartup(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	if !lc.Ready() {
		t.Error("should be ready after WaitForStartup")
	}
}

func TestStartupHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() {
			count.Add(1)
		})
	}

	lc.WaitForStartup()

	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
}

func TestShutdownHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})

	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !cleaned.Load() {
		t.Error("shutdown hook did not execute")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})

	lc.WaitForStartup()

	err := lc.Shutdown(50 * time.Millisecond)
	if err == nil {
		t.Error("expected timeout error, got nil")
	}
}

func TestContextCancelledOnShutdown(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context should be cancelled after shutdown")
	}
}

func TestProbe(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name    string
		started bool
		checks  map[string]lifecycle.Check
		want    bool
		results map[string]string
	}{
		{
			name:    "before startup",
			started: false,
			want:    false,
			results: map[string]string{},
		},
		{
			name:    "all checks pass",
			started: true,
			checks: map[string]lifecycle.Check{
				"database":  func(context.Context) error { return nil },
				"workspace": func(context.Context) error { return nil },
			},
			want:    true,
			results: map[string]string{"database": "ok", "workspace": "ok"},
		},
		{
			name:    "one check fails",
			started: true,
			checks: map[string]lifecycle.Check{
				"database": func(context.Context) error { return boom },
				"tasks":    func(context.Context) error { return nil },
			},
			want:    false,
			results: map[string]string{"database": "connection refused", "tasks": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := lifecycle.New()
			for name, check := range tt.checks {
				lc.AddCheck(name, check)
			}
			if tt.started {
				lc.WaitForStartup()
			}

			report := lc.Probe(context.Background())
			if report.Ready != tt.want {
				t.Errorf("ready: got %v, want %v", report.Ready, tt.want)
			}
			if !maps.Equal(report.Checks, tt.results) {
				t.Errorf("checks: got %v, want %v", report.Checks, tt.results)
			}
		})
	}
}

func TestProbeAfterShutdown(t *testing.T) {
	lc := lifecycle.New()
	lc.AddCheck("database", func(context.Context) error { return nil })
	lc.WaitForStartup()

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	report := lc.Probe(context.Background())
	if report.Ready {
		t.Error("should not be ready after shutdown")
	}
	if report.Checks["lifecycle"] != lifecycle.ErrShuttingDown.Error() {
		t.Errorf("checks: got %v", report.Checks)
	}
}

func TestAddCheckReplaces(t *testing.T) {
	lc := lifecycle.New()
	lc.AddCheck("tasks", func(context.Context) error { return errors.New("full") })
	lc.AddCheck("tasks", func(context.Context) error { return nil })
	lc.WaitForStartup()

	if report := lc.Probe(context.Background()); !report.Ready {
		t.Errorf("replaced check should pass: %v", report.Checks)
	}
}
