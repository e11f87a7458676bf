package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ghstore/internal/config"
	"github.com/utafrali/ghstore/internal/service"
	"github.com/utafrali/ghstore/pkg/health"
	"github.com/utafrali/ghstore/pkg/middleware"
)

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cartService *service.CartService,
	addressService *service.AddressService,
	phoneService *service.PhoneService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsOrigins []string,
	phoneLimit middleware.RateLimitConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(corsOrigins)))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(config.ServiceName))
	r.Use(middleware.Tracing(config.ServiceName))
	r.Use(middleware.Identity)
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cartService, logger)
	addressHandler := NewAddressHandler(addressService, logger)
	phoneHandler := NewPhoneHandler(phoneService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/", cartHandler.GetCart)
			r.Get("/summary", cartHandler.GetSummary)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{itemId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{itemId}", cartHandler.RemoveItem)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/", addressHandler.ListAddresses)
			r.Post("/", addressHandler.CreateAddress)
			r.Get("/{id}", addressHandler.GetAddress)
			r.Put("/{id}", addressHandler.UpdateAddress)
			r.Delete("/{id}", addressHandler.DeleteAddress)
			r.Post("/{id}/default", addressHandler.SetDefaultAddress)
		})

		r.Route("/phone", func(r chi.Router) {
			r.Use(middleware.RateLimit(phoneLimit, logger))

			r.Post("/inspect", phoneHandler.Inspect)
			r.Post("/validate", phoneHandler.Validate)
			r.Post("/normalize", phoneHandler.Normalize)
		})
	})

	return r
}
