package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/money"
)

// RequestedItem is one line a customer asks to buy.
type RequestedItem struct {
	ProductID      uuid.UUID
	Quantity       int
	VariantSize    string
	IsSubscription bool
}

// Assembly is the validated, price-snapshotted content of a new order.
type Assembly struct {
	Items      []models.OrderItem
	ItemsPrice decimal.Decimal
}

// Assembler validates requested lines against live inventory and snapshots prices.
// It never mutates stock.
type Assembler struct {
	resolver inventoryResolver
}

func NewAssembler(resolver inventoryResolver) *Assembler {
	return &Assembler{resolver: resolver}
}

func (a *Assembler) Assemble(ctx context.Context, requested []RequestedItem) (*Assembly, error) {
	if len(requested) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order items required")
	}

	out := &Assembly{
		Items:      make([]models.OrderItem, 0, len(requested)),
		ItemsPrice: decimal.Zero,
	}
	for i, item := range requested {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product id required", i))
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be at least 1", i))
		}

		size := strings.TrimSpace(item.VariantSize)
		res, err := a.resolver.Resolve(ctx, item.ProductID, size)
		if err != nil {
			return nil, err
		}
		if item.Quantity > res.AvailableQty {
			return nil, pkgerrors.InsufficientStock(
				fmt.Sprintf("Insufficient stock for %s", res.Name),
				pkgerrors.StockShortfall{
					ProductID:   res.ProductID.String(),
					ProductName: res.Name,
					VariantSize: res.VariantSize,
					Requested:   item.Quantity,
					Available:   res.AvailableQty,
				},
			)
		}

		line := models.OrderItem{
			ProductID:      res.ProductID,
			Name:           res.Name,
			Image:          res.Image,
			Quantity:       item.Quantity,
			UnitPrice:      res.UnitPrice,
			IsSubscription: item.IsSubscription,
			Position:       i,
		}
		if res.HasVariant() {
			variantSize := res.VariantSize
			variantPrice := res.UnitPrice
			line.VariantSize = &variantSize
			line.VariantPrice = &variantPrice
		}
		out.Items = append(out.Items, line)
		out.ItemsPrice = out.ItemsPrice.Add(money.LineTotal(res.UnitPrice, item.Quantity))
	}
	out.ItemsPrice = out.ItemsPrice.Round(2)
	return out, nil
}
