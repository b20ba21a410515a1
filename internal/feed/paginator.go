package feed

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"jobsportal/internal/domain"

	"github.com/google/uuid"
)

const (
	firstPage = 1

	// DefaultLoadMoreThreshold is the share of rendered rows left below the
	// viewport at which the next page should be requested.
	DefaultLoadMoreThreshold = 0.5
)

// Source returns the jobs of a single page.
type Source interface {
	FetchPage(ctx context.Context, page int) ([]domain.Job, error)
}

// Snapshot is the paginator state handed to subscribers.
type Snapshot struct {
	Items        []domain.Job
	State        domain.LoadState
	ErrorMessage string
	Cursor       int
}

// Paginator accumulates job pages into a collection that only grows and
// holds each id at most once. LoadNextPage is not reentrant: calls made
// while a page is loading are dropped.
type Paginator struct {
	source Source
	log    *slog.Logger

	mu         sync.Mutex
	items      []domain.Job
	seen       map[domain.JobID]struct{}
	cursor     int
	state      domain.LoadState
	err        error
	generation uint64

	subsMu      sync.Mutex
	subscribers map[uuid.UUID]func(Snapshot)
}

func NewPaginator(source Source, log *slog.Logger) *Paginator {
	return &Paginator{
		source:      source,
		log:         log,
		seen:        make(map[domain.JobID]struct{}),
		cursor:      firstPage,
		state:       domain.LoadStateIdle,
		subscribers: make(map[uuid.UUID]func(Snapshot)),
	}
}

// LoadNextPage fetches the page at the cursor and blocks until it is
// applied. It returns false without fetching when a load is in flight.
// A failed page leaves the cursor in place so the same page can be retried.
func (p *Paginator) LoadNextPage(ctx context.Context) bool {
	p.mu.Lock()
	if p.state == domain.LoadStateLoading {
		p.mu.Unlock()
		return false
	}

	p.state = domain.LoadStateLoading
	p.err = nil
	page := p.cursor
	generation := p.generation
	loading := p.snapshotLocked()
	p.mu.Unlock()

	p.notify(loading)

	jobs, err := p.source.FetchPage(ctx, page)

	p.mu.Lock()
	if generation != p.generation {
		p.mu.Unlock()

		p.log.DebugContext(ctx, "Dropping stale jobs page",
			"page", page,
			"generation", generation)

		return true
	}

	added := 0
	if err != nil {
		p.state = domain.LoadStateError
		p.err = err
	} else {
		added = p.appendLocked(jobs)
		p.cursor++
		p.state = domain.LoadStateIdle
	}
	done := p.snapshotLocked()
	p.mu.Unlock()

	if err != nil {
		p.log.WarnContext(ctx, "Failed to load jobs page",
			"error", err,
			"page", page,
			"message", done.ErrorMessage,
			"itemCount", len(done.Items))
	} else {
		p.log.DebugContext(ctx, "Jobs page is loaded",
			"page", page,
			"received", len(jobs),
			"added", added,
			"itemCount", len(done.Items))
	}

	p.notify(done)

	return true
}

func (p *Paginator) appendLocked(jobs []domain.Job) int {
	added := 0

	for _, job := range jobs {
		if job.ID == "" {
			continue
		}

		if _, ok := p.seen[job.ID]; ok {
			continue
		}

		p.seen[job.ID] = struct{}{}
		p.items = append(p.items, job)
		added++
	}

	return added
}

// Reset empties the collection and rewinds the cursor. A page still in
// flight is ignored when it completes.
func (p *Paginator) Reset() {
	p.mu.Lock()
	p.items = nil
	clear(p.seen)
	p.cursor = firstPage
	p.state = domain.LoadStateIdle
	p.err = nil
	p.generation++
	snapshot := p.snapshotLocked()
	p.mu.Unlock()

	p.notify(snapshot)
}

// CurrentItems returns the collection without records that have nothing
// to display.
func (p *Paginator) CurrentItems() []domain.Job {
	p.mu.Lock()
	defer p.mu.Unlock()

	return displayable(p.items)
}

func displayable(jobs []domain.Job) []domain.Job {
	out := make([]domain.Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Displayable() {
			out = append(out, job)
		}
	}

	return out
}

// Find looks a job up in the whole collection, displayable or not.
func (p *Paginator) Find(id domain.JobID) (domain.Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.seen[id]; !ok {
		return domain.Job{}, false
	}

	i := slices.IndexFunc(p.items, func(job domain.Job) bool { return job.ID == id })
	if i < 0 {
		return domain.Job{}, false
	}

	return p.items[i], true
}

func (p *Paginator) LoadState() domain.LoadState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// ErrorMessage is empty unless the state is error.
func (p *Paginator) ErrorMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return UserMessage(p.err)
}

// Err returns the cause of the error state.
func (p *Paginator) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.err
}

// Cursor is the page the next LoadNextPage will fetch.
func (p *Paginator) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cursor
}

// Len counts every collected job, displayable or not.
func (p *Paginator) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.items)
}

func (p *Paginator) snapshotLocked() Snapshot {
	return Snapshot{
		Items:        displayable(p.items),
		State:        p.state,
		ErrorMessage: UserMessage(p.err),
		Cursor:       p.cursor,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func unsubscribes and may be called more than once.
func (p *Paginator) Subscribe(fn func(Snapshot)) func() {
	id := uuid.New()

	p.subsMu.Lock()
	p.subscribers[id] = fn
	p.subsMu.Unlock()

	return func() {
		p.subsMu.Lock()
		delete(p.subscribers, id)
		p.subsMu.Unlock()
	}
}

func (p *Paginator) notify(snapshot Snapshot) {
	p.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.subsMu.Unlock()

	for _, fn := range fns {
		s := snapshot
		s.Items = slices.Clone(snapshot.Items)
		fn(s)
	}
}

// ShouldLoadMore reports whether a list showing row lastVisible (zero
// based) out of rendered rows is close enough to its end to request the
// next page. threshold is the share of rows still below the viewport.
func ShouldLoadMore(lastVisible, rendered int, threshold float64) bool {
	if rendered <= 0 {
		return true
	}

	if threshold <= 0 {
		threshold = DefaultLoadMoreThreshold
	}

	remaining := rendered - (lastVisible + 1)
	if remaining < 0 {
		remaining = 0
	}

	return float64(remaining) <= threshold*float64(rendered)
}
