package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kuraeplasma/SPACEGLEAM/api/controllers"
	webhookcontrollers "github.com/kuraeplasma/SPACEGLEAM/api/controllers/webhooks"
	"github.com/kuraeplasma/SPACEGLEAM/api/middleware"
	"github.com/kuraeplasma/SPACEGLEAM/internal/licenses"
	paypalwebhook "github.com/kuraeplasma/SPACEGLEAM/internal/webhooks/paypal"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/config"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/db"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/paypal"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          redis.Pinger
	LicenseService licenses.Service
	WebhookService *paypalwebhook.Service
	WebhookGuard   *paypalwebhook.IdempotencyGuard
	PayPalVerifier paypal.Verifier
	Metrics        prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/licenses/activate", controllers.ActivateLicense(params.LicenseService, logg))
		r.Post("/webhooks/paypal", webhookcontrollers.PayPalWebhook(params.WebhookService, params.PayPalVerifier, params.WebhookGuard, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.JWT, logg))
		r.Route("/licenses", func(r chi.Router) {
			r.Post("/", controllers.AdminLicenseCreate(params.LicenseService, logg))
			r.Post("/reset", controllers.AdminLicenseReset(params.LicenseService, logg))
			r.Get("/", controllers.AdminLicenseLookup(params.LicenseService, logg))
		})
	})

	return r
}
