package job

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusTrimming    Status = "trimming"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// rank orders the forward path pending -> downloading -> trimming -> completed.
// StatusError sits outside the ranking: reachable from any non-terminal state.
var rank = map[Status]int{
	StatusPending:     0,
	StatusDownloading: 1,
	StatusTrimming:    2,
	StatusCompleted:   3,
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job tracks one download from submission to terminal outcome.
type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Filename  string    `json:"filename,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewID returns a job id with a monotonic millisecond prefix plus uuid
// entropy, so concurrent submissions in the same millisecond cannot collide.
func NewID() string {
	return fmt.Sprintf("dl_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

var (
	ErrNotFound   = errors.New("job not found")
	ErrDuplicate  = errors.New("job id already exists")
	ErrTerminal   = errors.New("job already in terminal state")
	ErrTransition = errors.New("invalid status transition")
)

// Patch is a sparse update: nil fields are not supplied and leave the stored
// value untouched. This keeps "progress 0" and "empty message" expressible
// without sentinel ambiguity.
type Patch struct {
	Status   *Status
	Progress *int
	Message  *string
	Filename *string
	Error    *string
}

// Store is a concurrency-safe registry of jobs. All critical sections are
// constant-time table accesses; pipeline work never runs under the lock.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new pending job under id.
func (s *Store) Create(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; ok {
		return Job{}, ErrDuplicate
	}
	j := &Job{
		ID:        id,
		Status:    StatusPending,
		Message:   "Initializing...",
		CreatedAt: time.Now().UTC(),
	}
	s.jobs[id] = j
	return *j, nil
}

// Get returns a copy of the job so readers never alias the table.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *j, nil
}

// Apply merges the supplied fields of p into the job. Terminal records are
// immutable; status only moves forward or to error; the filename is written
// once; a lower progress value is ignored, not an error.
func (s *Store) Apply(id string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return ErrTerminal
	}
	if p.Status != nil && *p.Status != j.Status {
		if *p.Status != StatusError && rank[*p.Status] < rank[j.Status] {
			return fmt.Errorf("%w: %s -> %s", ErrTransition, j.Status, *p.Status)
		}
		j.Status = *p.Status
	}
	if p.Progress != nil && *p.Progress > j.Progress {
		j.Progress = *p.Progress
	}
	if p.Message != nil {
		j.Message = *p.Message
	}
	if p.Filename != nil && j.Filename == "" {
		j.Filename = *p.Filename
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
	return nil
}

// Complete marks the job finished with the located artifact.
func (s *Store) Complete(id, filename, message string) error {
	st := StatusCompleted
	progress := 100
	return s.Apply(id, Patch{
		Status:   &st,
		Progress: &progress,
		Message:  &message,
		Filename: &filename,
	})
}

// Fail freezes the job in error status with the underlying detail.
func (s *Store) Fail(id, message, detail string) error {
	st := StatusError
	return s.Apply(id, Patch{
		Status:  &st,
		Message: &message,
		Error:   &detail,
	})
}

// Sweep removes every job older than maxAge regardless of status and returns
// the number of evicted entries.
func (s *Store) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-maxAge)
	n := 0
	for id, j := range s.jobs {
		if j.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// Len reports the number of live jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
