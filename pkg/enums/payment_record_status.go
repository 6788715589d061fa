package enums

// PaymentRecordStatus is the state of an append-only gateway payment record.
type PaymentRecordStatus string

const (
	PaymentRecordStatusCreated PaymentRecordStatus = "created"
	PaymentRecordStatusPaid    PaymentRecordStatus = "paid"
	PaymentRecordStatusFailed  PaymentRecordStatus = "failed"
)

var paymentRecordStatuses = set[PaymentRecordStatus]{
	PaymentRecordStatusCreated,
	PaymentRecordStatusPaid,
	PaymentRecordStatusFailed,
}

func (p PaymentRecordStatus) String() string { return string(p) }

func (p PaymentRecordStatus) IsValid() bool { return paymentRecordStatuses.has(p) }

func ParsePaymentRecordStatus(value string) (PaymentRecordStatus, error) {
	return paymentRecordStatuses.parse("payment record status", value)
}
