// Package generation orchestrates license validation, the quota gate,
// the caption generator, and usage accounting for a single request.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"server/internal/captiongen"
	"server/internal/domain"
	"server/internal/license"
	"server/internal/usage"
)

// QuotaExceededError carries the usage snapshot alongside the quota
// failure so callers can render "X/Y used" without another query.
type QuotaExceededError struct {
	Usage domain.UsageSnapshot
}

func (e *QuotaExceededError) Error() string {
	return domain.ErrQuotaExceeded.Error()
}

func (e *QuotaExceededError) Unwrap() error {
	return domain.ErrQuotaExceeded
}

// Outcome is a successful generation: the caption plus the quota state
// after charging the call.
type Outcome struct {
	Caption string
	Tier    domain.Tier
	Usage   domain.UsageSnapshot
}

// UsageReport answers the usage endpoint: current count and tier
// without generating anything.
type UsageReport struct {
	Tier  domain.Tier
	Usage domain.UsageSnapshot
}

// Service wires the generation pipeline together. Each call is one
// attempt; retry policy, if any, belongs to the caller.
type Service struct {
	validator *license.Validator
	counters  usage.Store
	generator captiongen.Generator
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(validator *license.Validator, counters usage.Store, generator captiongen.Generator, logger zerolog.Logger) *Service {
	return &Service{
		validator: validator,
		counters:  counters,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate runs the full pipeline, short-circuiting on the first
// failure. The quota gate is strictly a pre-check: once it passes, the
// model call proceeds and only a success is charged against the
// counter. Failed generations never consume quota.
func (s *Service) Generate(ctx context.Context, licenseKey, image string, hints captiongen.Context) (Outcome, error) {
	res, err := s.validator.Resolve(ctx, licenseKey)
	if err != nil {
		return Outcome{}, err
	}

	month := domain.MonthKey(s.now())
	resets := domain.NextReset(s.now())

	used, err := s.counters.Count(ctx, res.Key, month)
	if err != nil {
		return Outcome{}, fmt.Errorf("read usage: %w", err)
	}
	if used >= res.Tier.Limit {
		return Outcome{}, &QuotaExceededError{Usage: domain.UsageSnapshot{
			Used:   used,
			Limit:  res.Tier.Limit,
			Resets: resets,
		}}
	}

	caption, err := s.generator.Generate(ctx, image, hints)
	if err != nil {
		s.logger.Warn().Err(err).Str("tier", res.Tier.Name).Msg("caption generation failed")
		return Outcome{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	newUsed, err := s.counters.Increment(ctx, res.Key, month)
	if err != nil {
		return Outcome{}, fmt.Errorf("record usage: %w", err)
	}

	s.logger.Debug().Str("tier", res.Tier.Name).Int("used", newUsed).Int("limit", res.Tier.Limit).Msg("caption generated")

	return Outcome{
		Caption: caption,
		Tier:    res.Tier,
		Usage: domain.UsageSnapshot{
			Used:   newUsed,
			Limit:  res.Tier.Limit,
			Resets: resets,
		},
	}, nil
}

// Usage resolves the license and reports its current month counter.
func (s *Service) Usage(ctx context.Context, licenseKey string) (UsageReport, error) {
	res, err := s.validator.Resolve(ctx, licenseKey)
	if err != nil {
		return UsageReport{}, err
	}

	used, err := s.counters.Count(ctx, res.Key, domain.MonthKey(s.now()))
	if err != nil {
		return UsageReport{}, fmt.Errorf("read usage: %w", err)
	}

	return UsageReport{
		Tier: res.Tier,
		Usage: domain.UsageSnapshot{
			Used:   used,
			Limit:  res.Tier.Limit,
			Resets: domain.NextReset(s.now()),
		},
	}, nil
}
