package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"jobsportal/internal/domain"

	"github.com/google/uuid"
)

// DefaultKey is the storage key holding the whole serialized bookmark set.
const DefaultKey = "bookmarks"

var ErrEmptyJobID = errors.New("job id is empty")

// Storage is the durable key-value store the bookmark set is persisted to.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store is the single authoritative bookmark set. Reads are served from
// memory; every mutation is persisted before the call returns.
//
// Writes are optimistic: the in-memory set changes first and is not rolled
// back when persisting fails, so memory and storage can diverge until the
// next successful write or Flush.
type Store struct {
	storage Storage
	key     string
	log     *slog.Logger

	// writeMu serializes read-modify-persist cycles and guards dirty.
	writeMu sync.Mutex
	// dirty is set while the last persist failed, so storage lags memory.
	dirty bool

	mu          sync.RWMutex
	jobs        []domain.Job
	index       map[domain.JobID]int
	initialized bool

	subsMu      sync.Mutex
	subscribers map[uuid.UUID]func([]domain.Job)
}

func New(storage Storage, key string, log *slog.Logger) *Store {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}

	return &Store{
		storage:     storage,
		key:         key,
		log:         log,
		index:       make(map[domain.JobID]int),
		subscribers: make(map[uuid.UUID]func([]domain.Job)),
	}
}

// Initialize loads the persisted set. Read failures leave the set empty and
// are returned as *StorageReadError; callers are expected to keep going.
func (s *Store) Initialize(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	jobs, err := s.load(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to load bookmarks so empty set will be used",
			"error", err,
			"key", s.key)

		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()

		return &StorageReadError{Key: s.key, Err: err}
	}

	s.mu.Lock()
	s.jobs = s.jobs[:0]
	clear(s.index)
	for _, job := range jobs {
		s.upsertLocked(job)
	}
	s.initialized = true
	snapshot := slices.Clone(s.jobs)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "Bookmarks are loaded",
		"key", s.key,
		"count", len(snapshot))

	s.notify(snapshot)

	return nil
}

func (s *Store) load(ctx context.Context) ([]domain.Job, error) {
	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("get value: %w", err)
	}

	if !found || len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var jobs []domain.Job
	if err = json.Unmarshal(raw, &jobs); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	return jobs, nil
}

// Add inserts job or replaces the entry with the same id in place.
func (s *Store) Add(ctx context.Context, job domain.Job) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.add(ctx, job)
}

// Remove deletes the entry with id. Removing an absent id is a no-op and
// does not touch storage.
func (s *Store) Remove(ctx context.Context, id domain.JobID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.remove(ctx, id)
}

// Toggle removes job when it is bookmarked and adds it otherwise. It
// returns the membership after the call.
func (s *Store) Toggle(ctx context.Context, job domain.Job) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.IsBookmarked(job.ID) {
		return false, s.remove(ctx, job.ID)
	}

	return true, s.add(ctx, job)
}

// Flush persists the current in-memory set when a previous write failed.
// It writes nothing otherwise, so a set that failed to load never replaces
// what storage holds.
func (s *Store) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.dirty {
		return nil
	}

	s.mu.RLock()
	snapshot := slices.Clone(s.jobs)
	s.mu.RUnlock()

	return s.persist(ctx, snapshot)
}

func (s *Store) add(ctx context.Context, job domain.Job) error {
	if job.ID == "" {
		return ErrEmptyJobID
	}

	s.mu.Lock()
	s.upsertLocked(job)
	snapshot := slices.Clone(s.jobs)
	s.mu.Unlock()

	if err := s.persist(ctx, snapshot); err != nil {
		return err
	}

	s.notify(snapshot)

	return nil
}

func (s *Store) remove(ctx context.Context, id domain.JobID) error {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}

	s.jobs = slices.Delete(s.jobs, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.jobs); j++ {
		s.index[s.jobs[j].ID] = j
	}
	snapshot := slices.Clone(s.jobs)
	s.mu.Unlock()

	if err := s.persist(ctx, snapshot); err != nil {
		return err
	}

	s.notify(snapshot)

	return nil
}

func (s *Store) upsertLocked(job domain.Job) {
	if i, ok := s.index[job.ID]; ok {
		s.jobs[i] = job
		return
	}

	s.index[job.ID] = len(s.jobs)
	s.jobs = append(s.jobs, job)
}

func (s *Store) persist(ctx context.Context, jobs []domain.Job) error {
	if jobs == nil {
		jobs = []domain.Job{}
	}

	raw, err := json.Marshal(jobs)
	if err != nil {
		s.dirty = true
		return &StorageWriteError{Key: s.key, Err: fmt.Errorf("encode value: %w", err)}
	}

	if err = s.storage.Set(ctx, s.key, raw); err != nil {
		s.dirty = true

		s.log.ErrorContext(ctx, "Failed to persist bookmarks",
			"error", err,
			"key", s.key,
			"count", len(jobs))

		return &StorageWriteError{Key: s.key, Err: err}
	}

	s.dirty = false

	return nil
}

func (s *Store) IsBookmarked(id domain.JobID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[id]
	return ok
}

func (s *Store) Get(id domain.JobID) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Job{}, false
	}

	return s.jobs[i], true
}

// List returns the bookmarks in insertion order.
func (s *Store) List() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.jobs)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.jobs)
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.initialized
}

// Subscribe registers fn to receive the new set after every committed
// mutation. The returned func unsubscribes and may be called more than once.
func (s *Store) Subscribe(fn func([]domain.Job)) func() {
	id := uuid.New()

	s.subsMu.Lock()
	s.subscribers[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subscribers, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify(jobs []domain.Job) {
	s.subsMu.Lock()
	fns := make([]func([]domain.Job), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(jobs))
	}
}
