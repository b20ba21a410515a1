package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultFlushSpec      = "*/15 * * * *"
	PruneSessionsSpec     = "0 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	SessionIdleTimeout    = 24 * time.Hour
	flushTimeout          = time.Minute
)

// Flusher rewrites the in-memory bookmark set to storage.
type Flusher interface {
	Flush(ctx context.Context) error
}

// SessionPruner drops feed sessions idle for longer than the given duration
// and reports how many were dropped.
type SessionPruner interface {
	PruneSessions(idleFor time.Duration) int
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	flusher   Flusher
	pruner    SessionPruner
	flushSpec string
	log       *slog.Logger
}

// New builds a scheduler. pruner may be nil. An empty flushSpec means
// DefaultFlushSpec.
func New(
	ctx context.Context,
	flusher Flusher,
	pruner SessionPruner,
	flushSpec string,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	if flushSpec == "" {
		flushSpec = DefaultFlushSpec
	}

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		flusher:   flusher,
		pruner:    pruner,
		flushSpec: flushSpec,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.flushSpec, s.flushBookmarks); err != nil {
		return fmt.Errorf("add flush job (spec = %q): %w", s.flushSpec, err)
	}

	if s.pruner != nil {
		if _, err := s.cron.AddFunc(PruneSessionsSpec, s.pruneSessions); err != nil {
			return fmt.Errorf("add prune job: %w", err)
		}
	}

	s.cron.Start()

	return nil
}

// Stop stops the cron and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) flushBookmarks() {
	ctx, cancel := context.WithTimeout(s.ctx, flushTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	if err := s.flusher.Flush(ctx); err != nil {
		s.log.ErrorContext(ctx, "Failed to flush bookmarks",
			"error", err,
			"spec", s.flushSpec)
		return
	}

	s.log.DebugContext(ctx, "Bookmarks are flushed")
}

func (s *Scheduler) pruneSessions() {
	pruned := s.pruner.PruneSessions(SessionIdleTimeout)
	if pruned > 0 {
		s.log.InfoContext(s.ctx, "Idle feed sessions are pruned",
			"count", pruned)
	}
}
