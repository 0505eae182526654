package batch

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/captiongen"
	"server/internal/domain"
	"server/internal/generation"
	"server/internal/storage"
)

// AdvanceResult is the outcome of one "advance" call. Exactly one of
// AltText and ItemError is set when an item was processed; neither is
// set at the completion boundary.
type AdvanceResult struct {
	Done      bool
	Stopped   bool
	Index     int
	Ref       string
	AltText   string
	ItemError string
	Usage     *domain.UsageSnapshot
	Succeeded int
	Failed    int
}

// Coordinator walks jobs through the generation service under caller
// control: the caller issues one advance per item, nothing self-drives.
type Coordinator struct {
	jobs     *JobStore
	svc      *generation.Service
	resolver storage.ImageResolver
	captions storage.CaptionStore
	logger   zerolog.Logger
}

func NewCoordinator(jobs *JobStore, svc *generation.Service, resolver storage.ImageResolver, captions storage.CaptionStore, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		jobs:     jobs,
		svc:      svc,
		resolver: resolver,
		captions: captions,
		logger:   logger,
	}
}

// Create registers a job for the given items. The license is only
// checked syntactically here; the per-item calls validate it for real.
func (c *Coordinator) Create(licenseKey string, items []Item, hints captiongen.Context) (*Job, error) {
	if !domain.LicenseKeyWellFormed(strings.TrimSpace(licenseKey)) {
		return nil, domain.ErrInvalidLicense
	}
	if len(items) == 0 {
		return nil, domain.ErrMalformedRequest
	}
	for _, item := range items {
		if strings.TrimSpace(item.Ref) == "" {
			return nil, domain.ErrMalformedRequest
		}
	}
	job := c.jobs.Create(strings.TrimSpace(licenseKey), items, hints)
	c.logger.Info().Str("batch_id", job.ID).Int("items", len(items)).Msg("batch created")
	return job, nil
}

// Advance processes the next item of the job. A per-item failure is
// recorded and skipped; quota exhaustion stops the whole job since
// every later call would fail the same way. The freshest usage
// snapshot rides along on every result.
func (c *Coordinator) Advance(ctx context.Context, batchID string, index int) (AdvanceResult, error) {
	job, ok := c.jobs.Get(batchID)
	if !ok {
		return AdvanceResult{}, domain.ErrBatchNotFound
	}

	if job.Completed || job.Stopped {
		return c.snapshot(job), nil
	}

	if index != job.Cursor {
		// The driver lost a response; report where the job actually is
		// without processing anything so it can resynchronize.
		c.logger.Warn().Str("batch_id", job.ID).Int("expected", job.Cursor).Int("got", index).Msg("batch advance out of sync")
		return c.snapshot(job), nil
	}

	if job.Cursor >= len(job.Items) {
		job.Completed = true
		job.Items = nil
		return c.snapshot(job), nil
	}

	item := job.Items[job.Cursor]
	result := AdvanceResult{Index: job.Cursor, Ref: item.Ref, Usage: job.LastUsage}

	payload, err := c.resolver.Resolve(ctx, item.Ref)
	if err != nil {
		return c.recordFailure(job, result, err.Error()), nil
	}

	out, err := c.svc.Generate(ctx, job.LicenseKey, payload, c.itemHints(job, item))
	switch {
	case err == nil:
		// Write-through is a best-effort sink: the caption is already
		// on its way back to the caller either way.
		if saveErr := c.captions.Save(ctx, item.Ref, job.LicenseKey, out.Caption); saveErr != nil {
			c.logger.Warn().Err(saveErr).Str("batch_id", job.ID).Str("ref", item.Ref).Msg("caption write-through failed")
		}
		job.Cursor++
		job.Succeeded++
		job.LastUsage = &out.Usage
		result.AltText = out.Caption
		result.Usage = job.LastUsage
		result.Succeeded, result.Failed = job.Succeeded, job.Failed
		return result, nil

	case errors.Is(err, domain.ErrQuotaExceeded):
		job.Stopped = true
		var quotaErr *generation.QuotaExceededError
		if errors.As(err, &quotaErr) {
			job.LastUsage = &quotaErr.Usage
		}
		c.logger.Info().Str("batch_id", job.ID).Int("remaining", job.Remaining()).Msg("batch stopped on quota")
		res := c.snapshot(job)
		res.ItemError = domain.ErrQuotaExceeded.Error()
		return res, nil

	case errors.Is(err, domain.ErrGenerationFailed), errors.Is(err, domain.ErrInvalidLicense):
		return c.recordFailure(job, result, err.Error()), nil

	default:
		// Infrastructure trouble, not an item verdict. Leave the
		// cursor where it is and surface the failure.
		return AdvanceResult{}, err
	}
}

func (c *Coordinator) recordFailure(job *Job, result AdvanceResult, message string) AdvanceResult {
	c.logger.Warn().Str("batch_id", job.ID).Str("ref", result.Ref).Str("error", message).Msg("batch item failed")
	job.Cursor++
	job.Failed++
	result.ItemError = message
	result.Usage = job.LastUsage
	result.Succeeded, result.Failed = job.Succeeded, job.Failed
	return result
}

func (c *Coordinator) snapshot(job *Job) AdvanceResult {
	return AdvanceResult{
		Done:      job.Completed || job.Stopped || job.Cursor >= len(job.Items),
		Stopped:   job.Stopped,
		Index:     job.Cursor,
		Usage:     job.LastUsage,
		Succeeded: job.Succeeded,
		Failed:    job.Failed,
	}
}

// itemHints overlays the per-item filename on the job-level hints.
func (c *Coordinator) itemHints(job *Job, item Item) captiongen.Context {
	hints := job.Hints
	if item.Filename != "" {
		hints.Filename = item.Filename
	} else if hints.Filename == "" && !strings.HasPrefix(strings.ToLower(item.Ref), "data:") {
		hints.Filename = path.Base(item.Ref)
	}
	return hints
}
