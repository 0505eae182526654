// Package usage tracks per-license, per-billing-month counters of
// successful generations.
package usage

import (
	"context"
	"time"

	"server/internal/infra"
	"server/internal/sqlinline"
)

// DefaultTTL keeps a counter alive through its billing month plus a
// buffer that tolerates clock skew across the boundary.
const DefaultTTL = 40 * 24 * time.Hour

// Store is a key-value counter keyed by (license, month). Counts only
// ever grow within a month; a new month means a new key, never an
// explicit reset.
type Store interface {
	// Count returns the current count, 0 when no entry exists.
	Count(ctx context.Context, licenseKey, monthKey string) (int, error)
	// Increment adds one and returns the new count. It is a plain
	// read-then-write: concurrent increments on the same key can lose
	// an update. Quota here is advisory-soft, so a slight undercount
	// is accepted rather than paying for a transactional counter.
	Increment(ctx context.Context, licenseKey, monthKey string) (int, error)
}

// PGStore persists counters in the usage_counters table. Expiry is a
// column swept by cmd/sweeper since Postgres has no native TTL.
type PGStore struct {
	sql infra.SQLExecutor
	ttl time.Duration
}

func NewPGStore(sql infra.SQLExecutor, ttl time.Duration) *PGStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PGStore{sql: sql, ttl: ttl}
}

func (s *PGStore) Count(ctx context.Context, licenseKey, monthKey string) (int, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectUsageCount, licenseKey, monthKey)
	var count int
	if err := row.Scan(&count); err != nil {
		if infra.IsNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (s *PGStore) Increment(ctx context.Context, licenseKey, monthKey string) (int, error) {
	current, err := s.Count(ctx, licenseKey, monthKey)
	if err != nil {
		return 0, err
	}
	next := current + 1
	expires := time.Now().Add(s.ttl)
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertUsageCount, licenseKey, monthKey, next, expires); err != nil {
		return 0, err
	}
	return next, nil
}

// SweepExpired deletes counters whose expiry has lapsed and returns the
// number of rows removed.
func (s *PGStore) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteExpiredUsage)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Store = (*PGStore)(nil)
