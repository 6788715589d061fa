package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the single mutable cart owned by a user.
type Cart struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DeliveryCharge decimal.Decimal `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	GrandTotal     decimal.Decimal `gorm:"column:grand_total;type:numeric(12,2);not null;default:0"`
	Items          []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CartItem is one (product, variant) line. VariantSize is empty for products
// sold without variants.
type CartItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID         uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_line"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_line"`
	VariantSize    string          `gorm:"column:variant_size;not null;default:'';uniqueIndex:ux_cart_items_line"`
	ProductName    string          `gorm:"column:product_name;not null"`
	ProductImage   string          `gorm:"column:product_image;not null;default:''"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal      decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	IsSubscription bool            `gorm:"column:is_subscription;not null;default:false"`
	Position       int             `gorm:"column:position;not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
