package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no job exists for the given id.
var ErrNotFound = errors.New("jobs: not found")

// ErrBadTransition is returned when an update would move a job's status
// backwards or out of a terminal state.
var ErrBadTransition = errors.New("jobs: illegal status transition")

// Store is the contract for job persistence. Implementations must provide
// read-after-write consistency within the process and atomic updates with
// respect to concurrent readers.
type Store interface {
	// Create allocates a new job in the received state.
	Create() (*Job, error)

	// Get returns a copy of the job, or ErrNotFound.
	Get(id string) (*Job, error)

	// Update applies the mutation atomically and bumps UpdatedAt.
	// Status changes that regress return ErrBadTransition and leave the
	// record untouched.
	Update(id string, apply func(*Job)) (*Job, error)
}

// MemStore is the in-memory Store used by the gateway. Records do not
// survive a process restart; on-disk artifacts are the outputs package's
// concern.
type MemStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemStore creates an empty in-memory job store.
func NewMemStore() *MemStore {
	return &MemStore{jobs: make(map[string]*Job)}
}

// Create allocates a new job in the received state.
func (s *MemStore) Create() (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return job.Clone(), nil
}

// Get returns a copy of the job, or ErrNotFound.
func (s *MemStore) Get(id string) (*Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}
	cp := job.Clone()
	s.mu.RUnlock()
	return cp, nil
}

// Update applies the mutation under the store lock. The mutation runs on a
// scratch copy; it is only installed if the resulting status transition is
// legal, so readers see either the old or the new record, never a torn mix.
func (s *MemStore) Update(id string, apply func(*Job)) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := job.Clone()
	apply(next)

	if next.Status != job.Status && !job.Status.CanAdvance(next.Status) {
		return nil, ErrBadTransition
	}

	next.ID = job.ID
	next.CreatedAt = job.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.jobs[id] = next

	return next.Clone(), nil
}
