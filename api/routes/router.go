package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prejin2310/megora-inventory/api/controllers"
	ordercontrollers "github.com/prejin2310/megora-inventory/api/controllers/orders"
	"github.com/prejin2310/megora-inventory/api/middleware"
	"github.com/prejin2310/megora-inventory/internal/customers"
	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/internal/orders"
	"github.com/prejin2310/megora-inventory/internal/products"
	"github.com/prejin2310/megora-inventory/pkg/config"
	"github.com/prejin2310/megora-inventory/pkg/db"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/metrics"
	"github.com/prejin2310/megora-inventory/pkg/redis"
)

// NewRouter wires every HTTP route. redisClient, httpMetrics and
// metricsHandler may be nil; idempotency and public rate limiting are then
// disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	productService products.Service,
	customerService customers.Service,
	ordersSvc orders.Service,
	ledgerSvc ledger.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		readyDeps        = []controllers.Dependency{{Name: "db", Pinger: dbP}}
		publicRateLimit  = func(next http.Handler) http.Handler { return next }
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		readyDeps = append(readyDeps, controllers.Dependency{Name: "redis", Pinger: redisClient})
		publicRateLimit = middleware.RateLimit(
			middleware.NewRateLimitPolicy("public_order", cfg.PublicLookup.RateLimitWindow, cfg.PublicLookup.RateLimitPerIP),
			redisClient,
			logg,
		)
	}
	idempotent := middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg)
	adminOnly := middleware.RequireRole(enums.StaffRoleAdmin, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.With(publicRateLimit).Get("/orders/{publicId}", ordercontrollers.PublicLookup(ordersSvc, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(productService, false, logg))
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Get("/low-stock", controllers.ProductList(productService, true, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.ProductGet(productService, logg))
				r.Patch("/", controllers.ProductUpdate(productService, logg))
				r.With(adminOnly).Delete("/", controllers.ProductArchive(productService, logg))
				r.With(idempotent).Post("/stock", controllers.ProductAdjustStock(productService, logg))
				r.Get("/ledger", controllers.ProductLedger(ledgerSvc, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(customerService, logg))
			r.Post("/", controllers.CustomerCreate(customerService, logg))
			r.Get("/{customerId}", controllers.CustomerGet(customerService, logg))
			r.Patch("/{customerId}", controllers.CustomerUpdate(customerService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersSvc, logg))
			r.With(idempotent).Post("/", ordercontrollers.Create(ordersSvc, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(ordersSvc, logg))
				r.Post("/status", ordercontrollers.UpdateStatus(ordersSvc, logg))
				r.With(idempotent).Post("/cancel", ordercontrollers.Cancel(ordersSvc, logg))
				r.With(idempotent).Post("/return", ordercontrollers.Return(ordersSvc, logg))
				r.Patch("/payment", ordercontrollers.UpdatePayment(ordersSvc, logg))
				r.Patch("/courier", ordercontrollers.UpdateCourier(ordersSvc, logg))
				r.Get("/ledger", ordercontrollers.Ledger(ordersSvc, logg))
			})
		})

		r.With(adminOnly).Get("/inventory/reconcile", controllers.InventoryReconcile(ledgerSvc, logg))
	})

	return r
}
