// Package storage holds the batch coordinator's collaborators: the
// caption write-through sink and the image reference resolver.
package storage

import (
	"context"
	"strings"

	"server/internal/infra"
	"server/internal/sqlinline"
)

// CaptionStore persists generated captions by image reference. The
// service writes through once per successful generation and never reads
// captions back on the hot path.
type CaptionStore interface {
	Save(ctx context.Context, imageRef, licenseKey, altText string) error
}

// PGCaptionStore stores captions in the captions table, latest write wins.
type PGCaptionStore struct {
	sql infra.SQLExecutor
}

func NewPGCaptionStore(sql infra.SQLExecutor) *PGCaptionStore {
	return &PGCaptionStore{sql: sql}
}

func (s *PGCaptionStore) Save(ctx context.Context, imageRef, licenseKey, altText string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertCaption, strings.TrimSpace(imageRef), licenseKey, altText)
	return err
}

var _ CaptionStore = (*PGCaptionStore)(nil)
