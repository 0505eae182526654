package batch

import (
	"testing"
	"time"

	"server/internal/captiongen"
)

func TestJobStoreSweepDropsAbandonedJobs(t *testing.T) {
	now := time.Now()
	s := NewJobStore(time.Hour)
	s.now = func() time.Time { return now }

	abandoned := s.Create("ABCD1234", []Item{{Ref: "a.png"}}, captiongen.Context{})
	fresh := s.Create("EFGH5678", []Item{{Ref: "b.png"}}, captiongen.Context{})

	// Touch the second job so its window slides while the abandoned
	// one lapses.
	now = now.Add(30 * time.Minute)
	if _, ok := s.Get(fresh.ID); !ok {
		t.Fatal("fresh job missing before sweep")
	}

	now = now.Add(45 * time.Minute)
	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("Sweep() = %d, want 1", removed)
	}
	if _, ok := s.jobs[abandoned.ID]; ok {
		t.Fatal("abandoned job survived the sweep")
	}
	if _, ok := s.Get(fresh.ID); !ok {
		t.Fatal("live job was swept")
	}
}

func TestJobStoreSweepKeepsEverythingFresh(t *testing.T) {
	now := time.Now()
	s := NewJobStore(time.Hour)
	s.now = func() time.Time { return now }

	s.Create("ABCD1234", []Item{{Ref: "a.png"}}, captiongen.Context{})
	s.Create("EFGH5678", []Item{{Ref: "b.png"}}, captiongen.Context{})

	now = now.Add(10 * time.Minute)
	if removed := s.Sweep(); removed != 0 {
		t.Fatalf("Sweep() = %d, want 0", removed)
	}
	if len(s.jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(s.jobs))
	}
}
