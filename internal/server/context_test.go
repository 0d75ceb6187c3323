package server

import (
	"context"
	"testing"
)

func TestNewServerContext(t *testing.T) {
	sc := NewServerContext(context.Background(), "1.2.3", false)

	if sc.GmailStore() == nil {
		t.Error("expected gmail store to be initialized")
	}
	if sc.GithubStore() == nil {
		t.Error("expected github store to be initialized")
	}
	if sc.Logger() == nil {
		t.Error("expected logger to be non-nil")
	}
	if sc.Version() != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %q", sc.Version())
	}
	if sc.ReadOnly() {
		t.Error("expected readOnly to be false")
	}
	if sc.IsShutdown() {
		t.Error("expected context not to be shutdown")
	}
}

func TestServerContext_ReadOnly(t *testing.T) {
	sc := NewServerContext(context.Background(), "dev", true)

	if !sc.ReadOnly() {
		t.Error("expected readOnly to be true")
	}
}

func TestServerContext_MetricsNeverNil(t *testing.T) {
	sc := NewServerContext(context.Background(), "dev", false)

	// Without a provider the recorder must still be usable.
	if sc.Metrics() == nil {
		t.Fatal("expected no-op metrics recorder, got nil")
	}
	if sc.Instrumentation() != nil {
		t.Error("expected no instrumentation provider by default")
	}
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := NewServerContext(context.Background(), "dev", false)

	if err := sc.Shutdown(); err != nil {
		t.Fatalf("expected no error on shutdown, got %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("expected context to be shutdown")
	}

	select {
	case <-sc.Context().Done():
	default:
		t.Error("expected context to be cancelled after shutdown")
	}

	// Shutdown is idempotent
	if err := sc.Shutdown(); err != nil {
		t.Errorf("expected no error on second shutdown, got %v", err)
	}
}
