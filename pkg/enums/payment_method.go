package enums

// PaymentMethod is how the customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodOnline PaymentMethod = "online"
)

var paymentMethods = set[PaymentMethod]{PaymentMethodCOD, PaymentMethodOnline}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return paymentMethods.has(p) }

// ParsePaymentMethod accepts any casing ("cod", "Online") and returns the
// stored spelling.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return paymentMethods.parseFold("payment method", value)
}
