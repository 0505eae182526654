package usage

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreCountDefaultsToZero(t *testing.T) {
	s := NewMemoryStore(0)
	count, err := s.Count(context.Background(), "ABCD1234", "2025-03")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("Count = %d, want 0", count)
	}
}

func TestMemoryStoreIncrementAccumulatesPerMonth(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := s.Increment(ctx, "ABCD1234", "2025-03")
		if err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
		if got != want {
			t.Fatalf("Increment = %d, want %d", got, want)
		}
	}

	// A new month label is a fresh counter starting at 0.
	got, err := s.Increment(ctx, "ABCD1234", "2025-04")
	if err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}
	if got != 1 {
		t.Fatalf("Increment in new month = %d, want 1", got)
	}
	prev, _ := s.Count(ctx, "ABCD1234", "2025-03")
	if prev != 3 {
		t.Fatalf("previous month count = %d, want 3", prev)
	}
}

func TestMemoryStoreKeysAreLicenseScoped(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	if _, err := s.Increment(ctx, "ABCD1234", "2025-03"); err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}
	count, err := s.Count(ctx, "WXYZ9999", "2025-03")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("other license count = %d, want 0", count)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	if _, err := s.Increment(ctx, "ABCD1234", "2025-03"); err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}

	now = now.Add(2 * time.Hour)
	count, err := s.Count(ctx, "ABCD1234", "2025-03")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after expiry = %d, want 0", count)
	}
}
