package license

import (
	"context"
	"errors"
	"strings"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// PGTierStore reads and writes tier assignments in the license_tiers
// table. The read path serves the validator; the write path serves the
// licensetier operator tool.
type PGTierStore struct {
	sql infra.SQLExecutor
}

func NewPGTierStore(sql infra.SQLExecutor) *PGTierStore {
	return &PGTierStore{sql: sql}
}

func (s *PGTierStore) TierName(ctx context.Context, licenseKey string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectLicenseTier, licenseKey)
	var name string
	if err := row.Scan(&name); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return strings.TrimSpace(name), nil
}

// Assign stores a tier assignment for a license key.
func (s *PGTierStore) Assign(ctx context.Context, licenseKey, tierName string) error {
	licenseKey = strings.TrimSpace(licenseKey)
	if !domain.LicenseKeyWellFormed(licenseKey) {
		return domain.ErrInvalidLicense
	}
	if _, ok := domain.TierByName(tierName); !ok {
		return errors.New("license: unknown tier " + tierName)
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertLicenseTier, licenseKey, strings.ToLower(strings.TrimSpace(tierName)))
	return err
}

// Remove deletes a stored assignment, returning the key to the trial default.
func (s *PGTierStore) Remove(ctx context.Context, licenseKey string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteLicenseTier, strings.TrimSpace(licenseKey))
	return err
}

var _ TierStore = (*PGTierStore)(nil)
