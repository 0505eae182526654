package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/captiongen"
	"server/internal/domain"
	"server/internal/generation"
	"server/internal/license"
	"server/internal/usage"
)

type stubTierStore struct{}

func (stubTierStore) TierName(ctx context.Context, key string) (string, error) {
	return "", domain.ErrNotFound
}

// scriptedGenerator fails on the listed call numbers (1-based) and
// succeeds otherwise.
type scriptedGenerator struct {
	calls    int
	failOn   map[int]error
	captions map[int]string
}

func (g *scriptedGenerator) Generate(ctx context.Context, image string, hints captiongen.Context) (string, error) {
	g.calls++
	if err, ok := g.failOn[g.calls]; ok {
		return "", err
	}
	if caption, ok := g.captions[g.calls]; ok {
		return caption, nil
	}
	return "A sample caption.", nil
}

type stubResolver struct {
	failRefs map[string]error
}

func (r *stubResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if r.failRefs != nil {
		if err, ok := r.failRefs[ref]; ok {
			return "", err
		}
	}
	return "data:image/jpeg;base64,aGVsbG8=", nil
}

type memCaptions struct {
	saved map[string]string
}

func (m *memCaptions) Save(ctx context.Context, ref, licenseKey, altText string) error {
	if m.saved == nil {
		m.saved = make(map[string]string)
	}
	m.saved[ref] = altText
	return nil
}

type fixture struct {
	coord    *Coordinator
	jobs     *JobStore
	counters *usage.MemoryStore
	gen      *scriptedGenerator
	captions *memCaptions
}

func newFixture(gen *scriptedGenerator) *fixture {
	counters := usage.NewMemoryStore(0)
	svc := generation.NewService(license.NewValidator(stubTierStore{}), counters, gen, zerolog.Nop())
	jobs := NewJobStore(0)
	captions := &memCaptions{}
	coord := NewCoordinator(jobs, svc, &stubResolver{}, captions, zerolog.Nop())
	return &fixture{coord: coord, jobs: jobs, counters: counters, gen: gen, captions: captions}
}

func items(refs ...string) []Item {
	out := make([]Item, 0, len(refs))
	for _, ref := range refs {
		out = append(out, Item{Ref: ref})
	}
	return out
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(&scriptedGenerator{})
	if _, err := f.coord.Create("ab", items("a.jpg"), captiongen.Context{}); !errors.Is(err, domain.ErrInvalidLicense) {
		t.Fatalf("short key err = %v, want ErrInvalidLicense", err)
	}
	if _, err := f.coord.Create("ABCD1234", nil, captiongen.Context{}); !errors.Is(err, domain.ErrMalformedRequest) {
		t.Fatalf("empty items err = %v, want ErrMalformedRequest", err)
	}
	if _, err := f.coord.Create("ABCD1234", []Item{{Ref: "  "}}, captiongen.Context{}); !errors.Is(err, domain.ErrMalformedRequest) {
		t.Fatalf("blank ref err = %v, want ErrMalformedRequest", err)
	}
}

func TestAdvancePartialFailureContinues(t *testing.T) {
	gen := &scriptedGenerator{failOn: map[int]error{2: errors.New("openai api error 502: bad gateway")}}
	f := newFixture(gen)
	ctx := context.Background()

	job, err := f.coord.Create("ABCD1234", items("one.jpg", "two.jpg", "three.jpg"), captiongen.Context{})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Item 0: success.
	res, err := f.coord.Advance(ctx, job.ID, 0)
	if err != nil {
		t.Fatalf("advance 0: %v", err)
	}
	if res.Done || res.AltText == "" || res.ItemError != "" {
		t.Fatalf("advance 0 result = %+v", res)
	}
	if res.Usage == nil || res.Usage.Used != 1 {
		t.Fatalf("advance 0 usage = %+v", res.Usage)
	}

	// Item 1: transient failure is reported and skipped.
	res, err = f.coord.Advance(ctx, job.ID, 1)
	if err != nil {
		t.Fatalf("advance 1: %v", err)
	}
	if res.Done || res.ItemError == "" {
		t.Fatalf("advance 1 result = %+v", res)
	}
	if res.Usage == nil || res.Usage.Used != 1 {
		t.Fatalf("failed item must not consume quota: %+v", res.Usage)
	}

	// Item 2: success.
	res, err = f.coord.Advance(ctx, job.ID, 2)
	if err != nil {
		t.Fatalf("advance 2: %v", err)
	}
	if res.AltText == "" || res.Succeeded != 2 || res.Failed != 1 {
		t.Fatalf("advance 2 result = %+v", res)
	}

	// Boundary: done, summary intact.
	res, err = f.coord.Advance(ctx, job.ID, 3)
	if err != nil {
		t.Fatalf("advance 3: %v", err)
	}
	if !res.Done || res.Succeeded != 2 || res.Failed != 1 {
		t.Fatalf("boundary result = %+v", res)
	}
}

func TestAdvanceBoundaryIsIdempotent(t *testing.T) {
	f := newFixture(&scriptedGenerator{})
	ctx := context.Background()

	job, _ := f.coord.Create("ABCD1234", items("one.jpg"), captiongen.Context{})
	if _, err := f.coord.Advance(ctx, job.ID, 0); err != nil {
		t.Fatalf("advance 0: %v", err)
	}

	for i := 0; i < 3; i++ {
		res, err := f.coord.Advance(ctx, job.ID, 1)
		if err != nil {
			t.Fatalf("boundary advance %d: %v", i, err)
		}
		if !res.Done {
			t.Fatalf("boundary advance %d not done: %+v", i, res)
		}
	}
	if f.gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", f.gen.calls)
	}
}

func TestAdvanceQuotaStopsJob(t *testing.T) {
	f := newFixture(&scriptedGenerator{})
	ctx := context.Background()

	// One generation left on the trial allowance.
	month := domain.MonthKey(time.Now())
	for i := 0; i < domain.TierTrial.Limit-1; i++ {
		if _, err := f.counters.Increment(ctx, "ABCD1234", month); err != nil {
			t.Fatalf("seed increment: %v", err)
		}
	}

	job, _ := f.coord.Create("ABCD1234", items("one.jpg", "two.jpg", "three.jpg"), captiongen.Context{})

	res, err := f.coord.Advance(ctx, job.ID, 0)
	if err != nil {
		t.Fatalf("advance 0: %v", err)
	}
	if res.AltText == "" || res.Usage.Used != domain.TierTrial.Limit {
		t.Fatalf("advance 0 result = %+v", res)
	}

	// The quota gate closes before the model is called.
	res, err = f.coord.Advance(ctx, job.ID, 1)
	if err != nil {
		t.Fatalf("advance 1: %v", err)
	}
	if !res.Done || !res.Stopped {
		t.Fatalf("quota advance result = %+v", res)
	}
	if res.Usage == nil || res.Usage.Used != domain.TierTrial.Limit {
		t.Fatalf("quota advance usage = %+v", res.Usage)
	}

	// No later advance processes remaining items.
	calls := f.gen.calls
	for i := 0; i < 2; i++ {
		res, err = f.coord.Advance(ctx, job.ID, 1)
		if err != nil {
			t.Fatalf("post-stop advance: %v", err)
		}
		if !res.Done || !res.Stopped {
			t.Fatalf("post-stop result = %+v", res)
		}
	}
	if f.gen.calls != calls {
		t.Fatalf("generator invoked after stop: %d -> %d", calls, f.gen.calls)
	}
}

func TestAdvanceUnknownBatch(t *testing.T) {
	f := newFixture(&scriptedGenerator{})
	if _, err := f.coord.Advance(context.Background(), "nope", 0); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("err = %v, want ErrBatchNotFound", err)
	}
}

func TestAdvanceExpiredBatch(t *testing.T) {
	f := newFixture(&scriptedGenerator{})
	now := time.Now()
	f.jobs.now = func() time.Time { return now }

	job, _ := f.coord.Create("ABCD1234", items("one.jpg"), captiongen.Context{})
	now = now.Add(DefaultRetention + time.Minute)

	if _, err := f.coord.Advance(context.Background(), job.ID, 0); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("err = %v, want ErrBatchNotFound", err)
	}
}

func TestAdvanceOutOfSyncIndexDoesNotProcess(t *testing.T) {
	f := newFixture(&scriptedGenerator{})
	ctx := context.Background()

	job, _ := f.coord.Create("ABCD1234", items("one.jpg", "two.jpg"), captiongen.Context{})
	if _, err := f.coord.Advance(ctx, job.ID, 0); err != nil {
		t.Fatalf("advance 0: %v", err)
	}

	res, err := f.coord.Advance(ctx, job.ID, 0) // stale index
	if err != nil {
		t.Fatalf("stale advance: %v", err)
	}
	if res.Index != 1 || res.AltText != "" || res.ItemError != "" {
		t.Fatalf("stale advance result = %+v", res)
	}
	if f.gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", f.gen.calls)
	}
}

func TestAdvanceWritesCaptionsThrough(t *testing.T) {
	gen := &scriptedGenerator{captions: map[int]string{1: "Storefront at dusk."}}
	f := newFixture(gen)

	job, _ := f.coord.Create("ABCD1234", items("shop.jpg"), captiongen.Context{})
	if _, err := f.coord.Advance(context.Background(), job.ID, 0); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := f.captions.saved["shop.jpg"]; got != "Storefront at dusk." {
		t.Fatalf("saved caption = %q", got)
	}
}

func TestAdvanceResolverFailureIsItemError(t *testing.T) {
	f := newFixture(&scriptedGenerator{})
	resolver := &stubResolver{failRefs: map[string]error{"gone.jpg": errors.New("storage: read image")}}
	f.coord.resolver = resolver

	job, _ := f.coord.Create("ABCD1234", items("gone.jpg", "ok.jpg"), captiongen.Context{})
	res, err := f.coord.Advance(context.Background(), job.ID, 0)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.ItemError == "" || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	if f.gen.calls != 0 {
		t.Fatalf("generator should not run for unresolvable items")
	}
}
