package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"server/internal/batch"
	"server/internal/captiongen"
	"server/internal/domain"
	"server/internal/generation"
	"server/internal/http/handlers"
	"server/internal/license"
	"server/internal/usage"

	"github.com/rs/zerolog"
)

type noopTierStore struct{}

func (noopTierStore) TierName(ctx context.Context, licenseKey string) (string, error) {
	return "", domain.ErrNotFound
}

type noopGenerator struct{}

func (noopGenerator) Generate(ctx context.Context, image string, hints captiongen.Context) (string, error) {
	return "a caption", nil
}

type noopResolver struct{}

func (noopResolver) Resolve(ctx context.Context, ref string) (string, error) {
	return ref, nil
}

type noopCaptions struct{}

func (noopCaptions) Save(ctx context.Context, imageRef, licenseKey, altText string) error {
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	svc := generation.NewService(license.NewValidator(noopTierStore{}), usage.NewMemoryStore(usage.DefaultTTL), noopGenerator{}, logger)
	coord := batch.NewCoordinator(batch.NewJobStore(batch.DefaultRetention), svc, noopResolver{}, noopCaptions{}, logger)
	app := handlers.NewApp(svc, coord, logger)
	return NewRouter(app, Options{Logger: logger, DefaultLocale: "en"})
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	// Browsers send this header byte-lowercased (Fetch spec), and
	// rs/cors v1.11+ rejects any other casing.
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Fatalf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRouterGenerateWiredThrough(t *testing.T) {
	router := newTestRouter(t)
	body := `{"license_key":"ABCD1234","image":"data:image/png;base64,aGVsbG8="}`
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"alt_text":"a caption"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
