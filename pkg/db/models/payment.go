package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/pkg/enums"
)

// PaidPaymentRefIndex guarantees a gateway payment reference is applied once.
const PaidPaymentRefIndex = "ux_payments_paid_ref"

// Payment is an append-only record of a gateway payment attempt.
type Payment struct {
	ID               uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID          *uuid.UUID                `gorm:"column:order_id;type:uuid;index"`
	GatewayOrderID   *string                   `gorm:"column:gateway_order_id"`
	GatewayPaymentID *string                   `gorm:"column:gateway_payment_id;uniqueIndex:ux_payments_paid_ref,where:status = 'paid'"`
	Signature        *string                   `gorm:"column:signature"`
	Amount           decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency         string                    `gorm:"column:currency;not null;default:'INR'"`
	Status           enums.PaymentRecordStatus `gorm:"column:status;type:payment_record_status;not null"`
	Reason           *string                   `gorm:"column:reason"`
	CreatedAt        time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
