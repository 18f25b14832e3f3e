package api

import (
	"net/http"

	_ "ratelock/docs"
	convhandler "ratelock/internal/conversion/handler"
	ratehandler "ratelock/internal/rate/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	swagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"
)

// NewRouter mounts the public API under /v1. syncLimiter throttles manual
// sync triggers per client IP; metrics serves the Prometheus scrape endpoint.
func NewRouter(conversionHandler *convhandler.Handler, rateHandler *ratehandler.Handler, syncLimiter *limiter.Limiter, metrics http.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)
	router.Method(http.MethodGet, "/metrics", metrics)
	router.Get("/health", conversionHandler.Health)

	router.Route("/v1", func(r chi.Router) {
		r.Get("/convert", conversionHandler.Convert)
		r.Get("/audit/{transaction_id}", conversionHandler.GetAuditRecord)
		r.Get("/rates", conversionHandler.GetCurrentRates)
		r.With(RateLimit(syncLimiter)).Post("/rates/sync", rateHandler.TriggerSync)
	})
	return router
}
