package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veltaedu/velta-backend/api/controllers"
	"github.com/veltaedu/velta-backend/api/middleware"
	"github.com/veltaedu/velta-backend/pkg/config"
	"github.com/veltaedu/velta-backend/pkg/logger"
)

// NewRouter wires the payout query and settlement surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisPinger controllers.Pinger,
	payoutService controllers.PayoutService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.PayoutList(payoutService, logg))
			r.Post("/", controllers.PayoutCreate(payoutService, logg))
			r.Route("/{payoutId}", func(r chi.Router) {
				r.Get("/", controllers.PayoutDetail(payoutService, logg))
				r.Get("/progress", controllers.PayoutProgress(payoutService, logg))
				r.Post("/approve", controllers.PayoutApprove(payoutService, logg))
				r.Post("/installments", controllers.PayoutInstallment(payoutService, logg))
			})
		})
		r.Get("/teachers/{teacherId}/payout-summary", controllers.TeacherPayoutSummary(payoutService, logg))
	})

	return r
}
