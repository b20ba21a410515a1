package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"jobsportal/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustJob(t *testing.T, raw string) domain.Job {
	t.Helper()

	job, err := domain.NewJob([]byte(raw))
	if err != nil {
		t.Fatalf("failed to build job from %s: %v", raw, err)
	}

	return job
}

type pageResult struct {
	jobs []domain.Job
	err  error
}

type stubSource struct {
	mu    sync.Mutex
	pages map[int]pageResult
	calls []int

	// gate, when set, blocks FetchPage until a value is received.
	gate    chan struct{}
	started chan int
}

func newStubSource() *stubSource {
	return &stubSource{pages: make(map[int]pageResult)}
}

func (s *stubSource) set(page int, jobs []domain.Job, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[page] = pageResult{jobs: jobs, err: err}
}

func (s *stubSource) FetchPage(_ context.Context, page int) ([]domain.Job, error) {
	s.mu.Lock()
	s.calls = append(s.calls, page)
	result := s.pages[page]
	gate := s.gate
	started := s.started
	s.mu.Unlock()

	if started != nil {
		started <- page
	}

	if gate != nil {
		<-gate
	}

	return result.jobs, result.err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

func titles(jobs []domain.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.Title())
	}

	return out
}

func TestPaginatorStartsIdleAtFirstPage(t *testing.T) {
	p := NewPaginator(newStubSource(), discardLogger())

	if p.Cursor() != 1 {
		t.Fatalf("expected cursor 1, got %d", p.Cursor())
	}

	if p.LoadState() != domain.LoadStateIdle {
		t.Fatalf("expected idle state, got %s", p.LoadState())
	}

	if p.ErrorMessage() != "" || p.Err() != nil {
		t.Fatalf("expected no error, got %q %v", p.ErrorMessage(), p.Err())
	}

	if len(p.CurrentItems()) != 0 {
		t.Fatalf("expected no items")
	}
}

func TestPaginatorDedupesAcrossPages(t *testing.T) {
	source := newStubSource()
	source.set(1, []domain.Job{mustJob(t, `{"id":1,"title":"A"}`)}, nil)
	source.set(2, []domain.Job{
		mustJob(t, `{"id":1,"title":"A again"}`),
		mustJob(t, `{"id":2,"title":"B"}`),
	}, nil)

	p := NewPaginator(source, discardLogger())
	ctx := context.Background()

	if !p.LoadNextPage(ctx) {
		t.Fatalf("expected first load to run")
	}

	if !p.LoadNextPage(ctx) {
		t.Fatalf("expected second load to run")
	}

	got := titles(p.CurrentItems())
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("unexpected items: %v", got)
	}

	if p.Cursor() != 3 {
		t.Fatalf("expected cursor 3, got %d", p.Cursor())
	}

	if p.LoadState() != domain.LoadStateIdle {
		t.Fatalf("expected idle state, got %s", p.LoadState())
	}
}

func TestPaginatorFailureKeepsCursorAndItems(t *testing.T) {
	source := newStubSource()
	source.set(1, []domain.Job{mustJob(t, `{"id":1,"title":"A"}`)}, nil)
	source.set(2, []domain.Job{mustJob(t, `{"id":2,"title":"B"}`)}, nil)
	source.set(3, nil, &NetworkError{Page: 3, StatusCode: 500, Err: errors.New("boom")})

	p := NewPaginator(source, discardLogger())
	ctx := context.Background()

	p.LoadNextPage(ctx)
	p.LoadNextPage(ctx)
	p.LoadNextPage(ctx)

	if p.LoadState() != domain.LoadStateError {
		t.Fatalf("expected error state, got %s", p.LoadState())
	}

	if p.ErrorMessage() != NetworkErrorMessage {
		t.Fatalf("unexpected error message: %q", p.ErrorMessage())
	}

	var netErr *NetworkError
	if !errors.As(p.Err(), &netErr) || netErr.StatusCode != 500 {
		t.Fatalf("expected network error cause, got %v", p.Err())
	}

	if p.Cursor() != 3 {
		t.Fatalf("expected cursor to stay at 3, got %d", p.Cursor())
	}

	if got := titles(p.CurrentItems()); len(got) != 2 {
		t.Fatalf("expected items to be unchanged, got %v", got)
	}

	// Retry of the same page succeeds and clears the error.
	source.set(3, []domain.Job{mustJob(t, `{"id":3,"title":"C"}`)}, nil)

	if !p.LoadNextPage(ctx) {
		t.Fatalf("expected retry to run")
	}

	if p.LoadState() != domain.LoadStateIdle || p.ErrorMessage() != "" {
		t.Fatalf("expected retry to clear error, got %s %q", p.LoadState(), p.ErrorMessage())
	}

	if p.Cursor() != 4 || p.Len() != 3 {
		t.Fatalf("unexpected cursor=%d len=%d", p.Cursor(), p.Len())
	}
}

func TestPaginatorMalformedResponseMessage(t *testing.T) {
	source := newStubSource()
	source.set(1, nil, &MalformedResponseError{Page: 1, Reason: "results field is missing"})

	p := NewPaginator(source, discardLogger())
	p.LoadNextPage(context.Background())

	if p.ErrorMessage() != MalformedResponseMessage {
		t.Fatalf("unexpected error message: %q", p.ErrorMessage())
	}

	if p.Cursor() != 1 {
		t.Fatalf("expected cursor to stay at 1, got %d", p.Cursor())
	}
}

func TestPaginatorDropsConcurrentLoad(t *testing.T) {
	source := newStubSource()
	source.set(1, []domain.Job{mustJob(t, `{"id":1,"title":"A"}`)}, nil)
	source.gate = make(chan struct{})
	source.started = make(chan int, 1)

	p := NewPaginator(source, discardLogger())
	ctx := context.Background()

	done := make(chan bool)
	go func() {
		done <- p.LoadNextPage(ctx)
	}()

	<-source.started

	if p.LoadState() != domain.LoadStateLoading {
		t.Fatalf("expected loading state, got %s", p.LoadState())
	}

	if p.LoadNextPage(ctx) {
		t.Fatalf("expected load during loading to be dropped")
	}

	close(source.gate)

	if !<-done {
		t.Fatalf("expected first load to run")
	}

	if source.callCount() != 1 {
		t.Fatalf("expected exactly one fetch, got %d", source.callCount())
	}

	if p.Cursor() != 2 {
		t.Fatalf("expected cursor 2, got %d", p.Cursor())
	}
}

func TestPaginatorResetDropsStalePage(t *testing.T) {
	source := newStubSource()
	source.set(1, []domain.Job{mustJob(t, `{"id":1,"title":"A"}`)}, nil)
	source.gate = make(chan struct{})
	source.started = make(chan int, 1)

	p := NewPaginator(source, discardLogger())
	ctx := context.Background()

	done := make(chan bool)
	go func() {
		done <- p.LoadNextPage(ctx)
	}()

	<-source.started
	p.Reset()
	close(source.gate)
	<-done

	if p.Len() != 0 {
		t.Fatalf("expected stale page to be dropped, got %d items", p.Len())
	}

	if p.Cursor() != 1 {
		t.Fatalf("expected cursor 1 after reset, got %d", p.Cursor())
	}

	if p.LoadState() != domain.LoadStateIdle {
		t.Fatalf("expected idle state after reset, got %s", p.LoadState())
	}
}

func TestPaginatorResetAllowsReload(t *testing.T) {
	source := newStubSource()
	source.set(1, []domain.Job{mustJob(t, `{"id":1,"title":"A"}`)}, nil)

	p := NewPaginator(source, discardLogger())
	ctx := context.Background()

	p.LoadNextPage(ctx)
	p.Reset()
	p.LoadNextPage(ctx)

	if got := titles(p.CurrentItems()); len(got) != 1 || got[0] != "A" {
		t.Fatalf("expected job to be collected again after reset, got %v", got)
	}
}

func TestPaginatorCollectionOnlyGrows(t *testing.T) {
	source := newStubSource()
	source.set(1, []domain.Job{
		mustJob(t, `{"id":1,"title":"A"}`),
		mustJob(t, `{"id":2,"title":"B"}`),
	}, nil)
	source.set(2, []domain.Job{mustJob(t, `{"id":2,"title":"B"}`)}, nil)
	source.set(3, nil, errors.New("offline"))
	source.set(4, []domain.Job{mustJob(t, `{"id":"3","title":"C"}`)}, nil)

	p := NewPaginator(source, discardLogger())
	ctx := context.Background()

	prev := 0
	for range 5 {
		p.LoadNextPage(ctx)

		if p.Len() < prev {
			t.Fatalf("collection shrank from %d to %d", prev, p.Len())
		}
		prev = p.Len()
	}

	if p.Len() != 2 {
		t.Fatalf("expected 2 items before the failing page is retried, got %d", p.Len())
	}
}

func TestPaginatorCurrentItemsSkipsEmptyRecords(t *testing.T) {
	source := newStubSource()
	source.set(1, []domain.Job{
		mustJob(t, `{"id":1,"title":"A"}`),
		mustJob(t, `{"id":2,"type":1009}`),
		mustJob(t, `{"id":3,"primary_details":{"Place":"Chennai"}}`),
	}, nil)

	p := NewPaginator(source, discardLogger())
	p.LoadNextPage(context.Background())

	items := p.CurrentItems()
	if len(items) != 2 || items[0].ID != "1" || items[1].ID != "3" {
		t.Fatalf("unexpected displayable items: %v", items)
	}

	if p.Len() != 3 {
		t.Fatalf("expected all records to be collected, got %d", p.Len())
	}

	if _, ok := p.Find("2"); !ok {
		t.Fatalf("expected non-displayable record to be findable")
	}

	if _, ok := p.Find("404"); ok {
		t.Fatalf("expected unknown id to be missing")
	}
}

func TestPaginatorSubscribers(t *testing.T) {
	source := newStubSource()
	source.set(1, []domain.Job{mustJob(t, `{"id":1,"title":"A"}`)}, nil)

	p := NewPaginator(source, discardLogger())

	var states []domain.LoadState
	unsubscribe := p.Subscribe(func(s Snapshot) {
		states = append(states, s.State)
	})

	p.LoadNextPage(context.Background())

	if len(states) != 2 || states[0] != domain.LoadStateLoading || states[1] != domain.LoadStateIdle {
		t.Fatalf("unexpected notifications: %v", states)
	}

	unsubscribe()
	unsubscribe()
	p.Reset()

	if len(states) != 2 {
		t.Fatalf("expected no notifications after unsubscribe, got %v", states)
	}
}

func TestShouldLoadMore(t *testing.T) {
	tests := []struct {
		name        string
		lastVisible int
		rendered    int
		threshold   float64
		want        bool
	}{
		{name: "empty list", lastVisible: 0, rendered: 0, threshold: 0.5, want: true},
		{name: "top of long list", lastVisible: 2, rendered: 20, threshold: 0.5, want: false},
		{name: "half way", lastVisible: 9, rendered: 20, threshold: 0.5, want: true},
		{name: "last row", lastVisible: 19, rendered: 20, threshold: 0.1, want: true},
		{name: "default threshold", lastVisible: 4, rendered: 20, threshold: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldLoadMore(tt.lastVisible, tt.rendered, tt.threshold); got != tt.want {
				t.Fatalf("ShouldLoadMore(%d, %d, %v) = %v, want %v",
					tt.lastVisible, tt.rendered, tt.threshold, got, tt.want)
			}
		})
	}
}
