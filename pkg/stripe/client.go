package stripe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v84"

	"github.com/dairymart/dairymart-backend/pkg/config"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	defaultCurrency = "inr"
)

// keyPrefixes lists the secret and restricted key prefixes accepted per
// environment so a live key is never used against test config and vice versa.
var keyPrefixes = map[string][]string{
	testEnv: {"sk_test", "rk_test"},
	liveEnv: {"sk_live", "rk_live"},
}

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

type intentCreateFunc func(context.Context, *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)

// Client is the Stripe backed payment gateway. Intent creation runs behind
// a circuit breaker.
type Client struct {
	currency string
	create   intentCreateFunc
	breaker  *gobreaker.CircuitBreaker
	logg     *logger.Logger
}

func NewClient(ctx context.Context, cfg config.PaymentsConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.StripeAPIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, key); err != nil {
		return nil, err
	}

	api := stripe.NewClient(key)
	c := newClient(api.V1PaymentIntents.Create, cfg.Currency, logg)

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"stripe_env": env,
			"currency":   c.currency,
		}), "stripe.client_ready")
	}
	return c, nil
}

func newClient(create intentCreateFunc, currency string, logg *logger.Logger) *Client {
	return &Client{
		currency: normalizeCurrency(currency),
		create:   create,
		breaker:  newBreaker("stripe-payment-intents", logg),
		logg:     logg,
	}
}

// Provider names the gateway recorded on orders and payments.
func (c *Client) Provider() string {
	return "stripe"
}

func normalizeEnv(raw string) (string, error) {
	env := strings.ToLower(strings.TrimSpace(raw))
	if env == "" {
		return testEnv, nil
	}
	if _, ok := keyPrefixes[env]; !ok {
		return "", errInvalidStripeEnv
	}
	return env, nil
}

func normalizeCurrency(raw string) string {
	if currency := strings.ToLower(strings.TrimSpace(raw)); currency != "" {
		return currency
	}
	return defaultCurrency
}

func validateAPIKey(env, key string) error {
	prefixes, ok := keyPrefixes[env]
	if !ok {
		return errInvalidStripeEnv
	}
	if slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(key, p) }) {
		return nil
	}
	return fmt.Errorf("stripe environment %q requires a key starting with one of %s", env, strings.Join(prefixes, ", "))
}
