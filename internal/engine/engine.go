// Package engine assembles the order and inventory services shared by the
// api and cron binaries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dairymart/dairymart-backend/internal/cart"
	"github.com/dairymart/dairymart-backend/internal/inventory"
	"github.com/dairymart/dairymart-backend/internal/notifications"
	"github.com/dairymart/dairymart-backend/internal/orders"
	"github.com/dairymart/dairymart-backend/internal/payments"
	"github.com/dairymart/dairymart-backend/internal/shipping"
	"github.com/dairymart/dairymart-backend/pkg/config"
	"github.com/dairymart/dairymart-backend/pkg/db"
	"github.com/dairymart/dairymart-backend/pkg/idempotency"
	"github.com/dairymart/dairymart-backend/pkg/logger"
	"github.com/dairymart/dairymart-backend/pkg/metrics"
	"github.com/dairymart/dairymart-backend/pkg/pubsub"
	"github.com/dairymart/dairymart-backend/pkg/stripe"
)

// Params carries the infrastructure the engine is built on.
type Params struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	// Processed backs consumer dedupe for in-process notification delivery.
	Processed idempotency.Store
	// PubSub is optional. Without it status events are delivered inline.
	PubSub     *pubsub.Client
	Registerer prometheus.Registerer
	// Carrier overrides the configured shipping carrier.
	Carrier shipping.Carrier
	// Gateway overrides the configured payment gateway.
	Gateway orders.PaymentGateway
}

// Engine exposes the wired services.
type Engine struct {
	Resolver      *inventory.Resolver
	Cart          cart.Service
	Orders        orders.Service
	Payments      payments.Service
	Shipping      shipping.Service
	Notifications notifications.Service

	dispatcher *notifications.Dispatcher
	topic      *pubsub.TopicPublisher
}

// New wires every service against the shared database connection.
func New(ctx context.Context, params Params) (*Engine, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	cfg := params.Config
	logg := params.Logger
	conn := params.DB.DB()

	resolver, err := inventory.NewResolver(inventory.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("inventory resolver: %w", err)
	}

	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(params.DB, cartRepo, resolver, cfg.Cart.DeliveryChargeAmount())
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	notificationRepo := notifications.NewRepository(conn)
	notificationSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	publisher, topic, err := notificationPublisher(params, notificationRepo)
	if err != nil {
		return nil, err
	}
	dispatcher := notifications.NewDispatcher(publisher, cfg.Notifications.PublishTimeout, logg)

	gateway := params.Gateway
	if gateway == nil {
		gateway, err = paymentGateway(ctx, cfg.Payments, logg)
		if err != nil {
			return nil, err
		}
	}

	commerce := metrics.NewCommerceMetrics(params.Registerer)
	ordersRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Tx:       params.DB,
		Repo:     ordersRepo,
		Carts:    cartRepo,
		Resolver: resolver,
		Gateway:  gateway,
		Machine:  orders.NewStatusMachine(cfg.Orders.DeliveredPaymentPolicy),
		Notifier: dispatcher,
		Metrics:  commerce,
		Logger:   logg,
		Currency: cfg.Payments.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Tx:            params.DB,
		Repo:          payments.NewRepository(conn),
		Orders:        ordersRepo,
		Stock:         orders.NewStockCommitter(resolver, cartRepo),
		Gateway:       gateway,
		Metrics:       commerce,
		Logger:        logg,
		SigningSecret: cfg.Payments.SigningSecret,
		Currency:      cfg.Payments.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("payments service: %w", err)
	}

	carrier := params.Carrier
	if carrier == nil {
		carrier, err = shippingCarrier(cfg.Shipping, logg)
		if err != nil {
			return nil, err
		}
	}
	shippingSvc, err := shipping.NewService(carrier, ordersRepo, orderSvc, logg)
	if err != nil {
		return nil, fmt.Errorf("shipping service: %w", err)
	}

	return &Engine{
		Resolver:      resolver,
		Cart:          cartSvc,
		Orders:        orderSvc,
		Payments:      paymentSvc,
		Shipping:      shippingSvc,
		Notifications: notificationSvc,
		dispatcher:    dispatcher,
		topic:         topic,
	}, nil
}

// Close waits for queued status events and flushes the topic publisher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.dispatcher.Wait()
	if e.topic != nil {
		e.topic.Stop()
	}
}

func notificationPublisher(params Params, repo notifications.Repository) (notifications.Publisher, *pubsub.TopicPublisher, error) {
	if params.PubSub != nil {
		if topic := pubsub.NewTopicPublisher(params.PubSub.NotificationPublisher()); topic != nil {
			return topic, topic, nil
		}
	}
	if params.Processed == nil {
		params.Logger.Warn(context.Background(), "no pubsub client or processed store configured; order notifications disabled")
		return nil, nil, nil
	}
	manager, err := idempotency.NewManager(params.Processed, params.Config.Notifications.IdempotencyTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("notification idempotency: %w", err)
	}
	consumer, err := notifications.NewConsumer(repo, nil, manager, params.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("notification consumer: %w", err)
	}
	return notifications.NewInlinePublisher(consumer), nil, nil
}

func paymentGateway(ctx context.Context, cfg config.PaymentsConfig, logg *logger.Logger) (orders.PaymentGateway, error) {
	if strings.TrimSpace(cfg.StripeAPIKey) == "" {
		logg.Warn(ctx, "stripe api key not configured; using local payment gateway")
		return stripe.NewLocalGateway(cfg.Currency), nil
	}
	client, err := stripe.NewClient(ctx, cfg, logg)
	if err != nil {
		return nil, fmt.Errorf("stripe client: %w", err)
	}
	return client, nil
}

func shippingCarrier(cfg config.ShippingConfig, logg *logger.Logger) (shipping.Carrier, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Carrier), config.ShippingCarrierShiprocket) {
		client, err := shipping.NewShiprocketClient(cfg, logg)
		if err != nil {
			return nil, fmt.Errorf("shiprocket client: %w", err)
		}
		return client, nil
	}
	return shipping.NewFakeCarrier(time.Now().UnixNano()), nil
}
