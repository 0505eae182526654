package license

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"server/internal/domain"
)

// Source records how a license resolved to its tier. Call sites must
// handle the unassigned default consciously rather than receiving a
// bare tier value.
type Source int

const (
	// SourceAssigned means a stored tier assignment existed for the key.
	SourceAssigned Source = iota
	// SourceTrialDefault means the key was well-formed but had no
	// assignment, so the trial tier applied. Deliberately fail-open:
	// first-time callers are never blocked before an assignment exists.
	SourceTrialDefault
)

// Resolution is the outcome of validating a license key.
type Resolution struct {
	Key    string
	Tier   domain.Tier
	Source Source
}

// TierStore looks up stored tier assignments by license key.
type TierStore interface {
	// TierName returns the assigned tier name for the key, or
	// domain.ErrNotFound when no assignment exists.
	TierName(ctx context.Context, licenseKey string) (string, error)
}

// Validator maps opaque license keys to tiers. Pure lookup, no side
// effects, nothing cached between calls.
type Validator struct {
	store TierStore
}

func NewValidator(store TierStore) *Validator {
	return &Validator{store: store}
}

// Resolve validates the key and returns its tier. Malformed keys
// (empty or shorter than the minimum length) yield
// domain.ErrInvalidLicense; store failures propagate as-is.
func (v *Validator) Resolve(ctx context.Context, licenseKey string) (Resolution, error) {
	key := strings.TrimSpace(licenseKey)
	if !domain.LicenseKeyWellFormed(key) {
		return Resolution{}, domain.ErrInvalidLicense
	}

	if v.store != nil {
		name, err := v.store.TierName(ctx, key)
		switch {
		case err == nil:
			if tier, ok := domain.TierByName(name); ok {
				return Resolution{Key: key, Tier: tier, Source: SourceAssigned}, nil
			}
			// Assignment references a tier this build does not know.
			// Treat like no assignment rather than locking the caller out.
		case errors.Is(err, domain.ErrNotFound):
			// fall through to the trial default
		default:
			return Resolution{}, fmt.Errorf("resolve license tier: %w", err)
		}
	}

	return Resolution{Key: key, Tier: domain.TierTrial, Source: SourceTrialDefault}, nil
}
