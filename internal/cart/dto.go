package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
)

// AddItemInput describes a line to add or merge into the cart.
type AddItemInput struct {
	ProductID      uuid.UUID
	Quantity       int
	VariantSize    string
	IsSubscription bool
}

// UpdateItemInput sets the quantity of an existing line; zero or less removes it.
type UpdateItemInput struct {
	ProductID   uuid.UUID
	Quantity    int
	VariantSize string
}

// Item is the API view of a cart line.
type Item struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	ProductImage   string          `json:"product_image,omitempty"`
	VariantSize    string          `json:"variant_size,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
	IsSubscription bool            `json:"is_subscription"`
}

// Adjustment records how reconciliation changed a line since it was added.
type Adjustment struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	VariantSize       string          `json:"variant_size,omitempty"`
	PreviousQuantity  int             `json:"previous_quantity"`
	Quantity          int             `json:"quantity"`
	PreviousUnitPrice decimal.Decimal `json:"previous_unit_price"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Removed           bool            `json:"removed"`
	Reason            string          `json:"reason"`
}

// Cart is the API view of a user's cart.
type Cart struct {
	ID             *uuid.UUID      `json:"id,omitempty"`
	UserID         uuid.UUID       `json:"user_id"`
	Items          []Item          `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	Adjustments    []Adjustment    `json:"adjustments,omitempty"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

func emptyCart(userID uuid.UUID) *Cart {
	return &Cart{
		UserID:         userID,
		Items:          []Item{},
		Subtotal:       decimal.Zero,
		DeliveryCharge: decimal.Zero,
		GrandTotal:     decimal.Zero,
	}
}

func fromModel(record *models.Cart, adjustments []Adjustment) *Cart {
	id := record.ID
	updated := record.UpdatedAt
	out := &Cart{
		ID:             &id,
		UserID:         record.UserID,
		Items:          make([]Item, 0, len(record.Items)),
		Subtotal:       record.Subtotal,
		DeliveryCharge: record.DeliveryCharge,
		GrandTotal:     record.GrandTotal,
		Adjustments:    adjustments,
		UpdatedAt:      &updated,
	}
	for _, line := range record.Items {
		out.Items = append(out.Items, Item{
			ID:             line.ID,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			ProductImage:   line.ProductImage,
			VariantSize:    line.VariantSize,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			LineTotal:      line.LineTotal,
			IsSubscription: line.IsSubscription,
		})
	}
	return out
}
