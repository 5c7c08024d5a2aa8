package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/controllers"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/middleware"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/cart"
	checkoutsvc "github.com/gleilsonbarbosa2/elitepedidos2/internal/checkout"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/media"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/notifications"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/operators"
	products "github.com/gleilsonbarbosa2/elitepedidos2/internal/products"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/registers"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/sales"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/storehours"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/auth/session"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/metrics"
	pkgredis "github.com/gleilsonbarbosa2/elitepedidos2/pkg/redis"
)

// RedisStore is what the router's rate limiting and idempotency need from redis.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type eventSubscriber interface {
	Subscribe(registerID uuid.UUID) (<-chan notifications.Event, func())
}

// Deps carries everything the HTTP surface is built from.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Checks   map[string]db.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Metrics  http.Handler
	// HTTPMetrics may be nil; requests are then only logged.
	HTTPMetrics *metrics.HTTPMetrics

	Operators  operators.Service
	Products   products.Service
	Media      media.Service
	StoreHours storehours.Service
	Registers  registers.Service
	Sales      sales.Service
	Cart       cart.Service
	Checkout   checkoutsvc.Service
	Events     eventSubscriber
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	loginLimits := middleware.LoginLimits{
		Window:  cfg.HTTP.LoginWindow,
		PerIP:   cfg.HTTP.LoginIPLimit,
		PerCode: cfg.HTTP.LoginCodeLimit,
	}
	adminOnly := middleware.RequireRole(logg, enums.OperatorRoleAdmin)
	retrySafe := middleware.Idempotency(deps.Redis, cfg.Checkout.IdempotencyTTL, middleware.IdempotencyOptional, logg)
	keyRequired := middleware.Idempotency(deps.Redis, cfg.Checkout.IdempotencyTTL, middleware.IdempotencyRequired, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Checks, logg))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.LoginThrottle(loginLimits, deps.Redis, logg)).Post("/auth/login", controllers.AuthLogin(deps.Operators, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

			r.Post("/auth/logout", controllers.AuthLogout(deps.Operators, logg))
			r.Get("/auth/me", controllers.AuthMe(deps.Operators, logg))

			r.Route("/operators", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", controllers.ListOperators(deps.Operators, logg))
				r.Post("/", controllers.CreateOperator(deps.Operators, logg))
				r.Get("/{operatorID}", controllers.GetOperator(deps.Operators, logg))
				r.Put("/{operatorID}/active", controllers.SetOperatorActive(deps.Operators, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(deps.Products, logg))
				r.Get("/search", controllers.SearchProducts(deps.Products, logg))
				r.Get("/{productID}", controllers.GetProduct(deps.Products, logg))
				r.Get("/{productID}/image", controllers.GetProductImage(deps.Media, logg))

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Post("/", controllers.CreateProduct(deps.Products, logg))
					r.Patch("/{productID}", controllers.UpdateProduct(deps.Products, logg))
					r.Delete("/{productID}", controllers.DeleteProduct(deps.Products, logg))
					r.Put("/{productID}/schedule", controllers.SetProductSchedule(deps.Products, logg))
					r.Put("/{productID}/image", controllers.PutProductImage(deps.Media, logg))
					r.Delete("/{productID}/image", controllers.DeleteProductImage(deps.Media, logg))
				})
			})

			r.Route("/store-hours", func(r chi.Router) {
				r.Get("/", controllers.GetStoreHours(deps.StoreHours, logg))
				r.Get("/status", controllers.StoreStatus(deps.StoreHours, nil, logg))
				r.With(adminOnly).Put("/", controllers.UpdateStoreHours(deps.StoreHours, logg))
			})

			r.Route("/registers", func(r chi.Router) {
				r.With(retrySafe).Post("/", controllers.OpenRegister(deps.Registers, logg))
				r.Get("/current", controllers.CurrentRegister(deps.Registers, logg))

				r.Route("/{"+middleware.RegisterIDParam+"}", func(r chi.Router) {
					r.Use(middleware.RegisterScope(deps.Registers, logg))
					r.Get("/", controllers.GetRegister(deps.Registers, logg))
					r.With(retrySafe).Post("/close", controllers.CloseRegister(deps.Registers, logg))
					r.Get("/summary", controllers.RegisterSummary(deps.Registers, logg))
					r.Get("/sales", controllers.ListRegisterSales(deps.Sales, logg))
					r.Get("/sales/{saleID}", controllers.GetSale(deps.Sales, logg))
					r.Get("/events", controllers.StreamEvents(deps.Events, 0, logg))

					r.Route("/cart", func(r chi.Router) {
						r.Get("/", controllers.GetCart(deps.Cart, logg))
						r.Delete("/", controllers.ClearCart(deps.Cart, logg))
						r.With(retrySafe).Post("/lines", controllers.AddCartLine(deps.Cart, logg))
						r.Patch("/lines/{productID}", controllers.UpdateCartLine(deps.Cart, logg))
						r.Delete("/lines/{productID}", controllers.RemoveCartLine(deps.Cart, logg))
						r.Put("/discount", controllers.SetCartDiscount(deps.Cart, logg))
						r.Put("/payment", controllers.SetCartPayment(deps.Cart, logg))
						r.Put("/split", controllers.ConfigureCartSplit(deps.Cart, logg))
						r.Put("/split/{index}", controllers.SetCartSplitPart(deps.Cart, logg))
					})

					r.With(keyRequired).Post("/checkout", controllers.SubmitCheckout(deps.Checkout, logg))
					r.Get("/checkout", controllers.CheckoutStatus(deps.Checkout, logg))
				})
			})
		})
	})

	return r
}
