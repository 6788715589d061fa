package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dairymart"

// CommerceMetrics counts checkout, stock and payment outcomes.
type CommerceMetrics struct {
	ordersPlaced        *prometheus.CounterVec
	checkoutFailures    *prometheus.CounterVec
	stockConflicts      *prometheus.CounterVec
	paymentsVerified    *prometheus.CounterVec
	stockCommitFailures prometheus.Counter
	statusTransitions   *prometheus.CounterVec
}

// NewCommerceMetrics registers the order engine metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	m := &CommerceMetrics{
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders created, by payment method.",
		}, []string{"payment_method"}),
		checkoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkout attempts rejected, by error code.",
		}, []string{"reason"}),
		stockConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_conflicts_total",
			Help:      "Conditional stock decrements that found too little stock.",
		}, []string{"path"}),
		paymentsVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_verified_total",
			Help:      "Payment verification outcomes.",
		}, []string{"outcome"}),
		stockCommitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_stock_commit_failures_total",
			Help:      "Verified payments whose stock commitment failed and need manual review.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Applied order status transitions.",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(
		m.ordersPlaced,
		m.checkoutFailures,
		m.stockConflicts,
		m.paymentsVerified,
		m.stockCommitFailures,
		m.statusTransitions,
	)
	return m
}

func (m *CommerceMetrics) OrderPlaced(method string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(method)).Inc()
}

func (m *CommerceMetrics) CheckoutFailed(reason string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// StockConflict records a failed conditional decrement; path is "cod" or "payment".
func (m *CommerceMetrics) StockConflict(path string) {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.WithLabelValues(normalizeLabel(path)).Inc()
}

func (m *CommerceMetrics) PaymentVerified(outcome string) {
	if m == nil || m.paymentsVerified == nil {
		return
	}
	m.paymentsVerified.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CommerceMetrics) StockCommitFailed() {
	if m == nil || m.stockCommitFailures == nil {
		return
	}
	m.stockCommitFailures.Inc()
}

func (m *CommerceMetrics) StatusTransition(from, to string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}
