// Package batch drives a caller-owned list of image references through
// the generation service one item per "advance" call.
package batch

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"server/internal/captiongen"
	"server/internal/domain"
)

// DefaultRetention bounds how long an idle job survives between
// advance calls before it is treated as abandoned.
const DefaultRetention = time.Hour

// Item is one image reference in a job.
type Item struct {
	Ref      string `json:"ref"`
	Filename string `json:"filename,omitempty"`
}

// Job is the finite-state record behind a batch: an opaque identifier,
// the ordered items, a cursor, and running counts. It belongs to the
// caller that created it; the protocol assumes a single driver issuing
// one advance at a time, so fields are not individually locked.
type Job struct {
	ID         string
	LicenseKey string
	Items      []Item
	Hints      captiongen.Context
	Cursor     int
	Succeeded  int
	Failed     int
	// Completed is set once the cursor reaches the end. The item list
	// is released but the record lingers so boundary advances stay
	// idempotent until retention expires it.
	Completed bool
	// Stopped is set when an item hit the quota gate. Remaining items
	// are left unprocessed; every later call would fail identically.
	Stopped   bool
	LastUsage *domain.UsageSnapshot
	ExpiresAt time.Time
}

// Remaining reports how many items are left to process.
func (j *Job) Remaining() int {
	if j.Cursor >= len(j.Items) {
		return 0
	}
	return len(j.Items) - j.Cursor
}

// JobStore keeps jobs in memory with a sliding retention window.
// Counters are the durable state of this system; jobs are disposable
// driver state, so process-local storage mirrors the cache semantics
// they had originally.
type JobStore struct {
	mu        sync.Mutex
	retention time.Duration
	jobs      map[string]*Job
	now       func() time.Time
}

func NewJobStore(retention time.Duration) *JobStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &JobStore{
		retention: retention,
		jobs:      make(map[string]*Job),
		now:       time.Now,
	}
}

// Create registers a new job and returns it.
func (s *JobStore) Create(licenseKey string, items []Item, hints captiongen.Context) *Job {
	job := &Job{
		ID:         uuid.NewString(),
		LicenseKey: licenseKey,
		Items:      items,
		Hints:      hints,
	}
	s.mu.Lock()
	job.ExpiresAt = s.now().Add(s.retention)
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns the job and refreshes its retention window. Expired jobs
// are dropped on access and reported as absent.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.After(job.ExpiresAt) {
		delete(s.jobs, id)
		return nil, false
	}
	job.ExpiresAt = now.Add(s.retention)
	return job, true
}

// Sweep drops expired jobs and returns the number removed.
func (s *JobStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, job := range s.jobs {
		if now.After(job.ExpiresAt) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
