package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type stubFlusher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *stubFlusher) Flush(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.err
}

func (f *stubFlusher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type stubPruner struct {
	mu      sync.Mutex
	idleFor []time.Duration
}

func (p *stubPruner) PruneSessions(idleFor time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.idleFor = append(p.idleFor, idleFor)

	return 2
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaultsFlushSpec(t *testing.T) {
	s := New(context.Background(), &stubFlusher{}, nil, "", discardLogger())

	if s.flushSpec != DefaultFlushSpec {
		t.Fatalf("expected default spec, got %q", s.flushSpec)
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := New(context.Background(), &stubFlusher{}, nil, "not a spec", discardLogger())

	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatalf("expected error for invalid spec")
	}
}

func TestStartRegistersJobs(t *testing.T) {
	s := New(context.Background(), &stubFlusher{}, &stubPruner{}, "", discardLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	if got := len(s.cron.Entries()); got != 2 {
		t.Fatalf("expected 2 cron entries, got %d", got)
	}
}

func TestFlushBookmarksCallsFlusher(t *testing.T) {
	flusher := &stubFlusher{err: errors.New("disk full")}
	s := New(context.Background(), flusher, nil, "", discardLogger())

	s.flushBookmarks()
	s.flushBookmarks()

	if flusher.callCount() != 2 {
		t.Fatalf("expected flush to be attempted each run, got %d", flusher.callCount())
	}
}

func TestFlushBookmarksSkipsAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flusher := &stubFlusher{}
	s := New(ctx, flusher, nil, "", discardLogger())

	s.flushBookmarks()

	if flusher.callCount() != 0 {
		t.Fatalf("expected no flush after context is done")
	}
}

func TestPruneSessionsUsesIdleTimeout(t *testing.T) {
	pruner := &stubPruner{}
	s := New(context.Background(), &stubFlusher{}, pruner, "", discardLogger())

	s.pruneSessions()

	pruner.mu.Lock()
	defer pruner.mu.Unlock()

	if len(pruner.idleFor) != 1 || pruner.idleFor[0] != SessionIdleTimeout {
		t.Fatalf("unexpected prune calls: %v", pruner.idleFor)
	}
}
