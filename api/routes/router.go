package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitpulse/checkout-gateway/api/controllers"
	"github.com/fitpulse/checkout-gateway/api/middleware"
	checkoutsvc "github.com/fitpulse/checkout-gateway/internal/checkout"
	"github.com/fitpulse/checkout-gateway/internal/incidents"
	"github.com/fitpulse/checkout-gateway/internal/provider"
	"github.com/fitpulse/checkout-gateway/pkg/config"
	"github.com/fitpulse/checkout-gateway/pkg/db"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	idemStore redis.IdempotencyStore,
	sessionManager *checkoutsvc.Manager,
	confirmer provider.PaymentConfirmer,
	incidentsService incidents.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Credential(logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/sessions", controllers.OpenCheckoutSession(sessionManager, logg))
			r.Get("/resume", controllers.CheckoutResume(confirmer, logg))
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", controllers.CheckoutSessionStatus(sessionManager, logg))
				r.Post("/confirm", controllers.ConfirmCheckoutSession(sessionManager, logg))
				r.Post("/acknowledge", controllers.AcknowledgeCheckoutSession(sessionManager, logg))
				r.Post("/close", controllers.CloseCheckoutSession(sessionManager, logg))
			})
		})

		r.Route("/support/incidents", func(r chi.Router) {
			r.Get("/", controllers.ListOpenIncidents(incidentsService, logg))
			r.Post("/{incidentID}/resolve", controllers.ResolveIncident(incidentsService, logg))
		})
	})

	return r
}
