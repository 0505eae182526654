package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/batch"
	"server/internal/captiongen"
	"server/internal/generation"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/infra/geoip"
	"server/internal/license"
	"server/internal/middleware"
	"server/internal/storage"
	"server/internal/usage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	// The stored key wins over the environment so rotation does not
	// need a redeploy.
	apiKey := cfg.OpenAIAPIKey
	creds := credentials.NewStore(sqlRunner)
	keyCtx, cancelKey := context.WithTimeout(ctx, 5*time.Second)
	if stored, err := creds.OpenAIAPIKey(keyCtx); err != nil {
		logger.Warn().Err(err).Msg("failed to load stored openai key, using environment")
	} else if stored != "" {
		apiKey = stored
	}
	cancelKey()

	generator, err := captiongen.NewOpenAIClient(captiongen.OpenAIOptions{
		APIKey:       apiKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Timeout:      cfg.GenerateTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure caption generator")
	}

	validator := license.NewValidator(license.NewPGTierStore(sqlRunner))
	counters := usage.NewPGStore(sqlRunner, cfg.UsageTTL)
	svc := generation.NewService(validator, counters, generator, logger)

	jobs := batch.NewJobStore(cfg.BatchRetention)
	// Get drops expired jobs only when their ID is queried again;
	// abandoned jobs need this sweep or they sit in memory for the
	// life of the process.
	go func() {
		ticker := time.NewTicker(cfg.BatchRetention)
		defer ticker.Stop()
		for range ticker.C {
			if removed := jobs.Sweep(); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("abandoned batch jobs swept")
			}
		}
	}()
	resolver := storage.NewFileResolver(cfg.StoragePath)
	captions := storage.NewPGCaptionStore(sqlRunner)
	coordinator := batch.NewCoordinator(jobs, svc, resolver, captions, logger)

	var countryLookup middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip database unavailable, locale falls back to headers")
		} else if geo != nil {
			countryLookup = geo.CountryCode
			if closer, ok := geo.(interface{ Close() error }); ok {
				defer closer.Close()
			}
		}
	}

	app := handlers.NewApp(svc, coordinator, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
