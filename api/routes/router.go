package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dairymart/dairymart-backend/api/controllers"
	"github.com/dairymart/dairymart-backend/api/middleware"
	"github.com/dairymart/dairymart-backend/internal/cart"
	"github.com/dairymart/dairymart-backend/internal/notifications"
	"github.com/dairymart/dairymart-backend/internal/orders"
	"github.com/dairymart/dairymart-backend/internal/payments"
	"github.com/dairymart/dairymart-backend/internal/shipping"
	"github.com/dairymart/dairymart-backend/pkg/config"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	"github.com/dairymart/dairymart-backend/pkg/logger"
	"github.com/dairymart/dairymart-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	DB            controllers.Pinger
	Redis         *redis.Client
	Gatherer      prometheus.Gatherer
	Inventory     controllers.AvailabilityResolver
	Cart          cart.Service
	Orders        orders.Service
	Payments      payments.Service
	Shipping      shipping.Service
	Notifications notifications.Service
}

type routeStore interface {
	redis.IdempotencyStore
	middleware.RateLimitStore
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	var store routeStore
	if deps.Redis != nil {
		store = deps.Redis
	}

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutLimit)
	paymentPolicy := middleware.NewRateLimitPolicy("payment", cfg.RateLimit.PaymentWindow, cfg.RateLimit.PaymentLimit)

	readiness := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/{productId}/availability", controllers.ProductAvailability(deps.Inventory, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(store, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Put("/items", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.RateLimit(checkoutPolicy, store, logg)).Post("/", controllers.PlaceOrder(deps.Orders, logg))
				r.Get("/mine", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Use(middleware.RateLimit(paymentPolicy, store, logg))
				r.Post("/intents", controllers.CreatePaymentIntent(deps.Payments, logg))
				r.Post("/verify", controllers.VerifyPayment(deps.Payments, logg))
				r.Post("/failed", controllers.RecordPaymentFailure(deps.Payments, logg))
				r.Get("/mine", controllers.ListMyPayments(deps.Payments, logg))
			})

			r.Get("/shipments/{trackingId}", controllers.TrackShipment(deps.Shipping, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Get("/orders", controllers.AdminListOrders(deps.Orders, logg))
				r.Put("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
				r.Delete("/orders/{orderId}", controllers.AdminDeleteOrder(deps.Orders, logg))
				r.Post("/orders/{orderId}/ship", controllers.AdminShipOrder(deps.Shipping, logg))
				r.Get("/payments", controllers.AdminListPayments(deps.Payments, logg))
			})
		})
	})

	return r
}
