package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"street-screens-service/internal/adapters/cache"
	"street-screens-service/internal/adapters/places"
	"street-screens-service/internal/adapters/repositories"
	"street-screens-service/internal/api"
	"street-screens-service/internal/auth"
	"street-screens-service/internal/config"
	"street-screens-service/internal/enrichment"
	"street-screens-service/internal/platform/db"
	"street-screens-service/internal/platform/logging"
	"street-screens-service/internal/ports"
	"street-screens-service/internal/services"
	"street-screens-service/internal/supervisor"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Outscraper) behind ports and runs the
// HTTP server and enrichment workers under a supervisor tree.
func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, dialect, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := repositories.InitSchema(ctx, sqlDB, dialect); err != nil {
		return err
	}
	if cfg.Database.SeedOnStart {
		if err := repositories.SeedFromJSON(ctx, sqlDB, dialect, cfg.Database.SeedPath); err != nil {
			return err
		}
	}

	screenRepo := repositories.NewSQLScreenRepository(sqlDB, dialect)
	campaignRepo := repositories.NewSQLCampaignRepository(sqlDB, dialect)
	taxonomyRepo := repositories.NewSQLTaxonomyRepository(sqlDB, dialect)
	analyticsRepo := repositories.NewSQLAnalyticsRepository(sqlDB, dialect)
	userRepo := repositories.NewSQLUserRepository(sqlDB, dialect)

	provider, err := newPlacesProvider(cfg, cache.NewSQLPlacesCache(sqlDB, dialect))
	if err != nil {
		return err
	}

	jwt, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
		return err
	}

	tree := supervisor.NewTree(config.ServiceName, slog.New(logging.NewSlogHandler()), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	// Without enrichment, screens save normally and popular_times stays empty.
	var hooks services.SaveHooks
	if cfg.Enrichment.Enabled && provider != nil {
		dispatcher := enrichment.NewDispatcher(provider, screenRepo, enrichment.Config{
			Workers:       cfg.Enrichment.Workers,
			QueueSize:     cfg.Enrichment.QueueSize,
			LookupTimeout: cfg.Enrichment.LookupTimeout,
			Language:      cfg.Places.Language,
		})
		tree.AddWorker(dispatcher)
		hooks = enrichment.NewHooks(screenRepo, dispatcher)
	}

	router := api.NewRouter(api.Deps{
		Auth:         services.NewAuthService(userRepo, jwt),
		Taxonomy:     services.NewTaxonomyService(taxonomyRepo),
		Screens:      services.NewScreenService(screenRepo, taxonomyRepo, hooks),
		Campaigns:    services.NewCampaignService(campaignRepo, taxonomyRepo, analyticsRepo, nil),
		QR:           services.NewQRService(campaignRepo),
		Analytics:    services.NewAnalyticsService(analyticsRepo),
		PopularTimes: services.NewPopularTimesService(provider),
		JWT:          jwt,
	}, api.Options{
		CORSOrigins:             cfg.Security.CORSOrigins,
		RateLimitRequests:       cfg.Security.RateLimitRequests,
		RateLimitWindow:         cfg.Security.RateLimitWindow,
		PublicRateLimitRequests: cfg.Security.PublicRateLimitRequests,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPI(supervisor.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", srv.Addr).
		Str("db_driver", string(dialect)).
		Bool("enrichment", hooks != nil).
		Msg("server starting")

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("services did not stop within the shutdown timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("server stopped")
	return nil
}

// newPlacesProvider returns nil (an untyped nil interface) when no API key is
// configured, so the popular-times endpoint can report it as unconfigured.
func newPlacesProvider(cfg *config.Config, placesCache ports.PlacesCache) (ports.PlacesProvider, error) {
	if cfg.Places.APIKey == "" {
		logging.Warn().Msg("OUTSCRAPER_API_KEY is not set; popular times are disabled")
		return nil, nil
	}

	p, err := places.NewOutscraperProvider(cfg.Places.APIKey, places.Options{
		BaseURL:        cfg.Places.BaseURL,
		Language:       cfg.Places.Language,
		Timeout:        cfg.Places.Timeout,
		Cache:          placesCache,
		CacheTTL:       cfg.Places.CacheTTL,
		BreakerTimeout: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
