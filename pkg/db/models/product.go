package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog entry. The order engine only reads it, apart from
// conditional stock decrements.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description string           `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int              `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	Images      []string         `gorm:"column:images;type:jsonb;serializer:json"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// PrimaryImage returns the first image, used as the snapshot thumbnail.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasVariants reports whether stock and price live on variants.
func (p Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// ProductVariant is a sized option of a product ("500ml", "1L") with its own
// price and stock.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_variants_size"`
	Size      string          `gorm:"column:size;not null;uniqueIndex:ux_product_variants_size"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	Position  int             `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
