package enums

// PaymentStatus is the settlement state recorded on an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

var paymentStatuses = set[PaymentStatus]{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return paymentStatuses.has(p) }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return paymentStatuses.parse("payment status", value)
}
