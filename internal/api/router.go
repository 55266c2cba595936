package api

import (
	"net/http"
	"street-screens-service/internal/api/handlers"
	"street-screens-service/internal/auth"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/services"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Auth         *services.AuthService
	Taxonomy     *services.TaxonomyService
	Screens      *services.ScreenService
	Campaigns    *services.CampaignService
	QR           *services.QRService
	Analytics    *services.AnalyticsService
	PopularTimes *services.PopularTimesService
	JWT          *auth.JWTManager
}

type Options struct {
	CORSOrigins []string
	// Per-IP limit for authenticated API routes.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Per-IP limit for public QR and view-tracking routes.
	PublicRateLimitRequests int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         86400,
	}))

	authH := &handlers.AuthHandler{Auth: d.Auth}
	taxH := &handlers.TaxonomyHandler{Taxonomy: d.Taxonomy}
	screenH := &handlers.ScreenHandler{Screens: d.Screens}
	campaignH := &handlers.CampaignHandler{Campaigns: d.Campaigns}
	publicH := &handlers.PublicHandler{QR: d.QR, Analytics: d.Analytics}
	popularH := &handlers.PopularTimesHandler{PopularTimes: d.PopularTimes}

	requireAuth := auth.Middleware(d.JWT)
	apiLimit := rateLimit(opts.RateLimitRequests, opts.RateLimitWindow)
	publicLimit := rateLimit(opts.PublicRateLimitRequests, opts.RateLimitWindow)

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(apiLimit)
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.With(requireAuth).Get("/me", authH.Me)
	})

	r.Route("/api/v1/main", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(publicLimit)
			r.Get("/qr/{id}", publicH.QRRedirect)
			r.Post("/videos/{id}/views", publicH.RecordVideoView)
		})

		r.Group(func(r chi.Router) {
			r.Use(apiLimit)
			r.Use(requireAuth)

			r.Route("/regions", func(r chi.Router) {
				r.Get("/", taxH.ListRegions)
				r.Post("/", taxH.CreateRegion)
				r.Get("/{id}", taxH.GetRegion)
				r.Get("/{id}/districts", taxH.ListDistricts)
				r.Post("/{id}/districts", taxH.CreateDistrict)
			})

			r.Route("/interests", func(r chi.Router) {
				r.Get("/", taxH.ListInterests)
				r.Post("/", taxH.CreateInterest)
				r.Get("/{id}", taxH.GetInterest)
				r.Put("/{id}", taxH.UpdateInterest)
				r.Patch("/{id}", taxH.UpdateInterest)
				r.Delete("/{id}", taxH.DeleteInterest)
			})

			r.Route("/venue-types", func(r chi.Router) {
				r.Get("/", taxH.ListVenueTypes)
				r.Post("/", taxH.CreateVenueType)
				r.Get("/{id}", taxH.GetVenueType)
				r.Put("/{id}", taxH.UpdateVenueType)
				r.Patch("/{id}", taxH.UpdateVenueType)
				r.Delete("/{id}", taxH.DeleteVenueType)
			})

			r.Route("/screen-managers", func(r chi.Router) {
				r.Get("/", screenH.List)
				r.Post("/", screenH.Create)

				r.Get("/active", screenH.ListByStatus(domain.ScreenActive))
				r.Get("/inactive", screenH.ListByStatus(domain.ScreenInactive))
				r.Get("/maintenance", screenH.ListByStatus(domain.ScreenMaintenance))
				r.Get("/stats", screenH.Stats)
				r.Get("/aggregate_by_status", screenH.AggregateByStatus)
				r.Get("/positions", screenH.Positions)
				r.Get("/locations", screenH.Locations)
				r.Get("/coordinates", screenH.Coordinates)
				r.Get("/nearby", screenH.Nearby)

				r.Get("/{id}", screenH.Get)
				r.Put("/{id}", screenH.Update)
				r.Patch("/{id}", screenH.Patch)
				r.Delete("/{id}", screenH.Delete)
				r.Post("/{id}/activate", screenH.SetStatus(domain.ScreenActive))
				r.Post("/{id}/deactivate", screenH.SetStatus(domain.ScreenInactive))
				r.Post("/{id}/set_maintenance", screenH.SetStatus(domain.ScreenMaintenance))
			})

			r.Route("/ads-managers", func(r chi.Router) {
				r.Get("/", campaignH.List)
				r.Post("/", campaignH.Create)

				r.Get("/active", campaignH.ListByStatus(domain.CampaignActive))
				r.Get("/draft", campaignH.ListByStatus(domain.CampaignDraft))
				r.Get("/paused", campaignH.ListByStatus(domain.CampaignPaused))
				r.Get("/completed", campaignH.ListByStatus(domain.CampaignCompleted))
				r.Get("/stats", campaignH.Stats)
				r.Get("/aggregate_by_status", campaignH.AggregateByStatus)
				r.Get("/regions", campaignH.Regions)
				r.Get("/districts", campaignH.Districts)
				r.Get("/interests", campaignH.Interests)
				r.Get("/venue_types", campaignH.VenueTypes)
				r.Get("/filter_by_interest", campaignH.FilterByInterest)
				r.Get("/filter_by_venue_type", campaignH.FilterByVenueType)
				r.Get("/summary", campaignH.Summary)
				r.Delete("/videos/{id}", campaignH.DeleteVideo)
				r.Delete("/images/{id}", campaignH.DeleteImage)

				r.Get("/{id}", campaignH.Get)
				r.Put("/{id}", campaignH.Update)
				r.Patch("/{id}", campaignH.Patch)
				r.Delete("/{id}", campaignH.Delete)
				r.Post("/{id}/activate", campaignH.SetStatus(domain.CampaignActive))
				r.Post("/{id}/pause", campaignH.SetStatus(domain.CampaignPaused))
				r.Post("/{id}/complete", campaignH.SetStatus(domain.CampaignCompleted))
				r.Get("/{id}/videos", campaignH.ListVideos)
				r.Post("/{id}/videos", campaignH.AddVideo)
				r.Get("/{id}/images", campaignH.ListImages)
				r.Post("/{id}/images", campaignH.AddImage)
				r.Get("/{id}/analytics", campaignH.Analytics)
			})

			r.Get("/popular-times", popularH.Get)
		})
	})

	return r
}

// rateLimit limits requests per client IP. A non-positive limit disables it.
func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests"}` + "\n"))
		}),
	)
}
