package httpapi

import (
	stdhttp "net/http"
	"time"

	"server/internal/http/handlers"
	"server/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Options carries the router knobs that vary per deployment.
type Options struct {
	Logger          zerolog.Logger
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
	)

	// Callers are browser plugins on arbitrary origins, so CORS is
	// wide open. Preflights answer before locale detection or rate
	// limiting run.
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	// I18N precedes the logger so request lines carry the country.
	r.Use(
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		middleware.Logger(opts.Logger),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Post("/generate", app.Generate)
	r.Get("/usage", app.Usage)

	r.Route("/batch", func(r chi.Router) {
		r.Post("/", app.BatchCreate)
		r.Post("/next", app.BatchAdvance)
	})

	r.NotFound(app.NotFound)

	return r
}
