package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

// IntentRequest carries the amount (minor units) and receipt for a new gateway order.
type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Metadata    map[string]string
}

// Intent is the gateway-side order created before the customer pays.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret,omitempty"`
	AmountMinor  int64  `json:"amount"`
	Currency     string `json:"currency"`
	Receipt      string `json:"receipt"`
	Status       string `json:"status"`
}

// CreateIntent opens a payment intent through the circuit breaker.
func (c *Client) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if c == nil || c.create == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}
	if req.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	currency := c.currency
	if strings.TrimSpace(req.Currency) != "" {
		currency = normalizeCurrency(req.Currency)
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:      stripe.Int64(req.AmountMinor),
		Currency:    stripe.String(currency),
		Description: stripe.String(req.Receipt),
	}
	params.AddMetadata("receipt", req.Receipt)
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.create(ctx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway temporarily unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	pi, ok := result.(*stripe.PaymentIntent)
	if !ok || pi == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no intent")
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountMinor:  pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Receipt:      req.Receipt,
		Status:       string(pi.Status),
	}, nil
}

// Receipt builds the receipt identifier attached to each gateway order.
func Receipt(now time.Time) string {
	return fmt.Sprintf("rcpt_%d", now.UnixMilli())
}

func newBreaker(name string, logg *logger.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// card and validation errors are the caller's problem, not an outage
			var stripeErr *stripe.Error
			if errors.As(err, &stripeErr) {
				return stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logg == nil {
				return
			}
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "circuit breaker state changed")
		},
	})
}

// LocalGateway issues gateway order ids without calling out; used when no Stripe key is configured.
type LocalGateway struct {
	currency string
}

func NewLocalGateway(currency string) *LocalGateway {
	return &LocalGateway{currency: normalizeCurrency(currency)}
}

func (g *LocalGateway) Provider() string {
	return "local"
}

func (g *LocalGateway) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	if req.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	currency := g.currency
	if strings.TrimSpace(req.Currency) != "" {
		currency = normalizeCurrency(req.Currency)
	}
	return &Intent{
		ID:          "pi_local_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AmountMinor: req.AmountMinor,
		Currency:    strings.ToUpper(currency),
		Receipt:     req.Receipt,
		Status:      "requires_payment_method",
	}, nil
}
