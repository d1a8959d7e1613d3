package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, health *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "campaign-insights-v1.0")
			next.ServeHTTP(w, req)
		})
	})

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	// Health checks
	r.Get("/health", health.HandleHealth)
	r.Get("/health/live", health.HandleLiveness)
	r.Get("/health/ready", health.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		r.Get("/campaigns", h.ListCampaigns)
		r.Get("/campaigns/classify", h.ClassifyCampaign)

		r.Get("/trends/monthly", h.MonthlyTrend)
		r.Get("/trends/monthly/delta", h.MonthlyDelta)
		r.Get("/trends/yearly", h.YearlyTrend)

		r.Get("/anomalies", h.ListAnomalies)
		r.Post("/anomalies/digest", h.SendDigest)
		r.Get("/anomalies/archive", h.ListArchivedAnomalies)

		r.Get("/benchmarks", h.Benchmark)

		r.Get("/brand-management", h.ListBrands)
		r.Put("/brand-management", h.UpsertBrand)
		r.Delete("/brand-management", h.DeleteBrand)
		r.Delete("/brand-management/{brand}", h.DeleteBrand)

		r.Post("/refresh", h.Refresh)
	})

	return r
}
