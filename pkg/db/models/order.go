package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/pkg/enums"
	"github.com/dairymart/dairymart-backend/pkg/types"
)

// Order is the immutable purchase snapshot plus its mutable lifecycle fields.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	ItemsPrice      decimal.Decimal       `gorm:"column:items_price;type:numeric(12,2);not null"`
	ShippingPrice   decimal.Decimal       `gorm:"column:shipping_price;type:numeric(12,2);not null;default:0"`
	TotalPrice      decimal.Decimal       `gorm:"column:total_price;type:numeric(12,2);not null"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method;not null"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;type:payment_status;not null;default:'Pending'"`
	OrderStatus     enums.OrderStatus     `gorm:"column:order_status;type:order_status;not null;default:'Processing'"`
	GatewayOrderID  *string               `gorm:"column:gateway_order_id;index"`
	PaymentRef      *string               `gorm:"column:payment_ref"`
	PaymentProvider *string               `gorm:"column:payment_provider"`
	StockCommitted  bool                  `gorm:"column:stock_committed;not null;default:false"`
	TrackingID      *string               `gorm:"column:tracking_id;index"`
	ShipmentID      *string               `gorm:"column:shipment_id"`
	CourierName     *string               `gorm:"column:courier_name"`
	ShipmentStatus  enums.ShipmentStatus  `gorm:"column:shipment_status;type:shipment_status;not null;default:'Pending'"`
	TrackingHistory types.TrackingHistory `gorm:"column:tracking_history;type:jsonb;serializer:json"`
	PaidAt          *time.Time            `gorm:"column:paid_at"`
	DeliveredAt     *time.Time            `gorm:"column:delivered_at"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is written once with the order and never updated.
type OrderItem struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Name           string           `gorm:"column:name;not null"`
	Image          string           `gorm:"column:image;not null;default:''"`
	Quantity       int              `gorm:"column:quantity;not null;check:quantity > 0"`
	UnitPrice      decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	VariantSize    *string          `gorm:"column:variant_size"`
	VariantPrice   *decimal.Decimal `gorm:"column:variant_price;type:numeric(12,2)"`
	IsSubscription bool             `gorm:"column:is_subscription;not null;default:false"`
	Position       int              `gorm:"column:position;not null;default:0"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// LineTotal is unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Variant returns the selected variant size, or empty when none was chosen.
func (i OrderItem) Variant() string {
	if i.VariantSize == nil {
		return ""
	}
	return *i.VariantSize
}
