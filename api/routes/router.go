package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/citypulse-backend/api/controllers"
	"github.com/angelmondragon/citypulse-backend/api/middleware"
	"github.com/angelmondragon/citypulse-backend/internal/notifications"
	"github.com/angelmondragon/citypulse-backend/pkg/config"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
)

// Deps carries everything the HTTP surface needs. Optional members may be nil.
type Deps struct {
	DB            controllers.Pinger
	Redis         controllers.Pinger
	RateLimiter   middleware.RateLimitStore
	Evaluator     controllers.Evaluator
	Strategies    controllers.StrategyAdmin
	Notifications notifications.Service
	Metrics       prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	evaluatePolicy := middleware.NewRateLimitPolicy(
		"evaluate",
		cfg.HTTP.EvaluateRateWindow,
		cfg.HTTP.EvaluateRateLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/triggers", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(evaluatePolicy, deps.RateLimiter, logg))
			r.Post("/evaluate/location", controllers.EvaluateLocation(deps.Evaluator, logg))
			r.Post("/evaluate/{triggerType}", controllers.EvaluateTriggerType(deps.Evaluator, logg))
		})

		r.Get("/strategies", controllers.ListStrategies(deps.Strategies, logg))
		r.Get("/history", controllers.ListTriggerHistory(deps.Notifications, logg))
		r.Post("/history/{id}/read", controllers.MarkHistoryRead(deps.Notifications, logg))
	})

	r.Route("/api/admin/v1/triggers", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Put("/strategies/{triggerType}/toggle", controllers.ToggleStrategy(deps.Strategies, logg))
	})

	return r
}
