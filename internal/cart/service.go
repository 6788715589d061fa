package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/internal/inventory"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/money"
)

const (
	reasonProductUnavailable = "product no longer available"
	reasonVariantUnavailable = "variant no longer available"
	reasonOutOfStock         = "out of stock"
	reasonQuantityReduced    = "quantity reduced to available stock"
	reasonPriceChanged       = "price updated"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventoryResolver interface {
	ResolveTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantSize string) (*inventory.Resolution, error)
}

// Service is the per-user cart ledger.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Cart, error)
	ReadCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, input UpdateItemInput) (*Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID, variantSize string) (*Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) (*Cart, error)
}

type service struct {
	tx             txRunner
	repo           *Repository
	resolver       inventoryResolver
	deliveryCharge decimal.Decimal
}

// NewService builds the cart ledger. deliveryCharge seeds newly created carts.
func NewService(tx txRunner, repo *Repository, resolver inventoryResolver, deliveryCharge decimal.Decimal) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("inventory resolver required")
	}
	if deliveryCharge.IsNegative() {
		deliveryCharge = decimal.Zero
	}
	return &service{
		tx:             tx,
		repo:           repo,
		resolver:       resolver,
		deliveryCharge: deliveryCharge,
	}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	size := strings.TrimSpace(input.VariantSize)

	var out *Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		res, err := s.resolver.ResolveTx(ctx, tx, input.ProductID, size)
		if err != nil {
			return err
		}
		if qty > res.AvailableQty {
			return onlyAvailable(res, qty)
		}

		record, err := s.lockOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		if idx := findLine(record.Items, input.ProductID, res.VariantSize); idx >= 0 {
			line := &record.Items[idx]
			merged := line.Quantity + qty
			if merged > res.AvailableQty {
				return onlyAvailable(res, merged)
			}
			line.Quantity = merged
			line.UnitPrice = res.UnitPrice
			line.LineTotal = money.LineTotal(line.UnitPrice, line.Quantity)
			if err := repo.UpdateItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
		} else {
			line := models.CartItem{
				CartID:         record.ID,
				ProductID:      res.ProductID,
				VariantSize:    res.VariantSize,
				ProductName:    res.Name,
				ProductImage:   res.Image,
				Quantity:       qty,
				UnitPrice:      res.UnitPrice,
				LineTotal:      money.LineTotal(res.UnitPrice, qty),
				IsSubscription: input.IsSubscription,
				Position:       nextPosition(record.Items),
			}
			if err := repo.CreateItem(ctx, &line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert cart line")
			}
			record.Items = append(record.Items, line)
		}

		if err := s.persistTotals(ctx, repo, record); err != nil {
			return err
		}
		out = fromModel(record, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadCart reconciles every line against current inventory and persists the result.
func (s *service) ReadCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}

	var out *Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.LockByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out = emptyCart(userID)
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}

		kept := make([]models.CartItem, 0, len(record.Items))
		adjustments := []Adjustment{}
		for _, line := range record.Items {
			updated, adj, err := s.reconcileLine(ctx, tx, line)
			if err != nil {
				return err
			}
			if adj != nil {
				adjustments = append(adjustments, *adj)
			}
			if updated == nil {
				if err := repo.DeleteItem(ctx, line.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
				}
				continue
			}
			if adj != nil {
				if err := repo.UpdateItem(ctx, updated); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
				}
			}
			kept = append(kept, *updated)
		}
		record.Items = kept

		if err := s.persistTotals(ctx, repo, record); err != nil {
			return err
		}
		out = fromModel(record, adjustments)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reconcileLine returns the refreshed line (nil when it must be dropped) and the
// adjustment describing the change, if any.
func (s *service) reconcileLine(ctx context.Context, tx *gorm.DB, line models.CartItem) (*models.CartItem, *Adjustment, error) {
	adj := &Adjustment{
		ProductID:         line.ProductID,
		ProductName:       line.ProductName,
		VariantSize:       line.VariantSize,
		PreviousQuantity:  line.Quantity,
		Quantity:          line.Quantity,
		PreviousUnitPrice: line.UnitPrice,
		UnitPrice:         line.UnitPrice,
	}

	res, err := s.resolver.ResolveTx(ctx, tx, line.ProductID, line.VariantSize)
	if err != nil {
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			adj.Reason = reasonProductUnavailable
		case pkgerrors.IsCode(err, pkgerrors.CodeVariantNotFound):
			adj.Reason = reasonVariantUnavailable
		default:
			return nil, nil, err
		}
		adj.Quantity = 0
		adj.Removed = true
		return nil, adj, nil
	}

	reasons := []string{}
	if !res.UnitPrice.Equal(line.UnitPrice) {
		line.UnitPrice = res.UnitPrice
		adj.UnitPrice = res.UnitPrice
		reasons = append(reasons, reasonPriceChanged)
	}
	if line.Quantity > res.AvailableQty {
		line.Quantity = res.AvailableQty
		adj.Quantity = res.AvailableQty
		if line.Quantity <= 0 {
			adj.Quantity = 0
			adj.Removed = true
			adj.Reason = reasonOutOfStock
			return nil, adj, nil
		}
		reasons = append(reasons, reasonQuantityReduced)
	}

	line.LineTotal = money.LineTotal(line.UnitPrice, line.Quantity)
	if len(reasons) == 0 {
		return &line, nil, nil
	}
	adj.Reason = strings.Join(reasons, "; ")
	return &line, adj, nil
}

func (s *service) UpdateItem(ctx context.Context, userID uuid.UUID, input UpdateItemInput) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	size := strings.TrimSpace(input.VariantSize)

	var out *Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := s.lockExisting(ctx, repo, userID)
		if err != nil {
			return err
		}
		idx := findLine(record.Items, input.ProductID, size)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		line := &record.Items[idx]

		if input.Quantity <= 0 {
			if err := repo.DeleteItem(ctx, line.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
			}
			record.Items = append(record.Items[:idx], record.Items[idx+1:]...)
		} else {
			res, err := s.resolver.ResolveTx(ctx, tx, input.ProductID, size)
			if err != nil {
				return err
			}
			if input.Quantity > res.AvailableQty {
				return onlyAvailable(res, input.Quantity)
			}
			line.Quantity = input.Quantity
			line.LineTotal = money.LineTotal(line.UnitPrice, line.Quantity)
			if err := repo.UpdateItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
		}

		if err := s.persistTotals(ctx, repo, record); err != nil {
			return err
		}
		out = fromModel(record, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID, variantSize string) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	size := strings.TrimSpace(variantSize)

	var out *Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := s.lockExisting(ctx, repo, userID)
		if err != nil {
			return err
		}
		if idx := findLine(record.Items, productID, size); idx >= 0 {
			if err := repo.DeleteItem(ctx, record.Items[idx].ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
			}
			record.Items = append(record.Items[:idx], record.Items[idx+1:]...)
		}
		if err := s.persistTotals(ctx, repo, record); err != nil {
			return err
		}
		out = fromModel(record, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}

	var out *Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := s.lockExisting(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		record.Items = nil
		if err := s.persistTotals(ctx, repo, record); err != nil {
			return err
		}
		out = fromModel(record, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) lockOrCreate(ctx context.Context, repo *Repository, userID uuid.UUID) (*models.Cart, error) {
	record, err := repo.LockByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := repo.CreateIfMissing(ctx, userID, s.deliveryCharge); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	record, err = repo.LockByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return record, nil
}

func (s *service) lockExisting(ctx context.Context, repo *Repository, userID uuid.UUID) (*models.Cart, error) {
	record, err := repo.LockByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return record, nil
}

func (s *service) persistTotals(ctx context.Context, repo *Repository, record *models.Cart) error {
	Recalculate(record)
	if err := repo.SaveTotals(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart totals")
	}
	return nil
}

// Recalculate refreshes every line total and the cart totals so that
// grand total = sum of line totals + delivery charge.
func Recalculate(record *models.Cart) {
	subtotal := decimal.Zero
	for i := range record.Items {
		record.Items[i].LineTotal = money.LineTotal(record.Items[i].UnitPrice, record.Items[i].Quantity)
		subtotal = subtotal.Add(record.Items[i].LineTotal)
	}
	record.Subtotal = subtotal.Round(2)
	record.GrandTotal = record.Subtotal.Add(record.DeliveryCharge).Round(2)
}

func findLine(items []models.CartItem, productID uuid.UUID, variantSize string) int {
	for i, item := range items {
		if item.ProductID == productID && item.VariantSize == variantSize {
			return i
		}
	}
	return -1
}

func nextPosition(items []models.CartItem) int {
	next := 0
	for _, item := range items {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}

func onlyAvailable(res *inventory.Resolution, requested int) error {
	return pkgerrors.InsufficientStock(
		fmt.Sprintf("Only %d available", res.AvailableQty),
		pkgerrors.StockShortfall{
			ProductID:   res.ProductID.String(),
			ProductName: res.Name,
			VariantSize: res.VariantSize,
			Requested:   requested,
			Available:   res.AvailableQty,
		},
	)
}
