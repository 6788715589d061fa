package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/dairymart/dairymart-backend/pkg/config"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
)

// Effect names a side effect attached to a status transition.
type Effect string

const (
	EffectStampDeliveredAt         Effect = "StampDeliveredAt"
	EffectCollectPaymentOnDelivery Effect = "CollectPaymentOnDelivery"
	EffectSyncShipmentStatus       Effect = "SyncShipmentStatus"
)

var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

var shipmentStatusFor = map[enums.OrderStatus]enums.ShipmentStatus{
	enums.OrderStatusShipped:   enums.ShipmentStatusShipped,
	enums.OrderStatusDelivered: enums.ShipmentStatusDelivered,
	enums.OrderStatusCancelled: enums.ShipmentStatusCancelled,
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EffectsFor lists the effects attached to to-state, in application order.
func EffectsFor(to enums.OrderStatus) []Effect {
	effects := []Effect{}
	if to == enums.OrderStatusDelivered {
		effects = append(effects, EffectStampDeliveredAt, EffectCollectPaymentOnDelivery)
	}
	if _, ok := shipmentStatusFor[to]; ok {
		effects = append(effects, EffectSyncShipmentStatus)
	}
	return effects
}

// StatusMachine validates transitions and turns their effects into column updates.
type StatusMachine struct {
	deliveredPaymentPolicy string
	now                    func() time.Time
}

// NewStatusMachine builds a machine; an unknown policy falls back to "always".
func NewStatusMachine(deliveredPaymentPolicy string) *StatusMachine {
	policy := strings.ToLower(strings.TrimSpace(deliveredPaymentPolicy))
	switch policy {
	case config.DeliveredPaymentPolicyAlways, config.DeliveredPaymentPolicyCODOnly, config.DeliveredPaymentPolicyNever:
	default:
		policy = config.DeliveredPaymentPolicyAlways
	}
	return &StatusMachine{deliveredPaymentPolicy: policy, now: time.Now}
}

// Plan validates order.OrderStatus -> to and returns the column updates to persist.
func (m *StatusMachine) Plan(order *models.Order, to enums.OrderStatus) (map[string]any, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}
	from := order.OrderStatus
	if !CanTransition(from, to) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", from, to)).
			WithDetails(map[string]string{"from": string(from), "to": string(to)})
	}

	now := m.now().UTC()
	updates := map[string]any{"order_status": to}
	for _, effect := range EffectsFor(to) {
		switch effect {
		case EffectStampDeliveredAt:
			updates["delivered_at"] = now
		case EffectCollectPaymentOnDelivery:
			if m.collectsPayment(order) && order.PaymentStatus != enums.PaymentStatusPaid {
				updates["payment_status"] = enums.PaymentStatusPaid
				if order.PaidAt == nil {
					updates["paid_at"] = now
				}
			}
		case EffectSyncShipmentStatus:
			updates["shipment_status"] = shipmentStatusFor[to]
		}
	}
	return updates, nil
}

func (m *StatusMachine) collectsPayment(order *models.Order) bool {
	switch m.deliveredPaymentPolicy {
	case config.DeliveredPaymentPolicyNever:
		return false
	case config.DeliveredPaymentPolicyCODOnly:
		return order.PaymentMethod == enums.PaymentMethodCOD
	default:
		return true
	}
}
