package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
)

// Resolution is the price and availability in effect for a product and optional variant.
type Resolution struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Image        string          `json:"image,omitempty"`
	VariantSize  string          `json:"variant_size,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	AvailableQty int             `json:"available_qty"`
}

// HasVariant reports whether the resolution came from a variant.
func (r Resolution) HasVariant() bool {
	return r.VariantSize != ""
}

type productReader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Resolver answers price/stock questions and owns the only stock mutation.
type Resolver struct {
	repo productReader
}

// NewResolver builds a resolver backed by repo.
func NewResolver(repo productReader) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &Resolver{repo: repo}, nil
}

// Resolve reads the product fresh from the store. Products with variants always
// resolve against the selected variant; their base fields are never used.
func (r *Resolver) Resolve(ctx context.Context, productID uuid.UUID, variantSize string) (*Resolution, error) {
	return resolve(ctx, r.repo, productID, variantSize)
}

// ResolveTx is Resolve reading through tx, for callers already holding a transaction.
func (r *Resolver) ResolveTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantSize string) (*Resolution, error) {
	if tx == nil {
		return r.Resolve(ctx, productID, variantSize)
	}
	return resolve(ctx, NewRepository(tx), productID, variantSize)
}

func resolve(ctx context.Context, repo productReader, productID uuid.UUID, variantSize string) (*Resolution, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return ResolveProduct(product, variantSize)
}

// ResolveProduct applies the variant rules to an already loaded product.
func ResolveProduct(product *models.Product, variantSize string) (*Resolution, error) {
	if product == nil || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	size := strings.TrimSpace(variantSize)
	res := &Resolution{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.PrimaryImage(),
	}

	if size == "" {
		if product.HasVariants() {
			return nil, pkgerrors.New(pkgerrors.CodeVariantNotFound,
				fmt.Sprintf("variant selection required for %s", product.Name))
		}
		res.UnitPrice = product.Price
		res.AvailableQty = product.Stock
		return res, nil
	}

	for _, variant := range product.Variants {
		if variant.Size == size {
			res.VariantSize = variant.Size
			res.UnitPrice = variant.Price
			res.AvailableQty = variant.Stock
			return res, nil
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeVariantNotFound,
		fmt.Sprintf("Variant %q not found for %s", size, product.Name)).
		WithDetails(map[string]string{"product_id": product.ID.String(), "variant_size": size})
}

// DecrementStock removes qty units inside tx using a conditional update. When
// fewer than qty units remain nothing changes and INSUFFICIENT_STOCK is returned
// with the current availability.
func (r *Resolver) DecrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantSize string, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for stock decrement")
	}

	repo := NewRepository(tx)
	size := strings.TrimSpace(variantSize)

	var (
		affected int64
		err      error
	)
	if size == "" {
		affected, err = repo.DecrementProductStock(ctx, productID, qty)
	} else {
		affected, err = repo.DecrementVariantStock(ctx, productID, size, qty)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
	}
	if affected == 1 {
		return nil
	}

	product, err := repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	available := product.Stock
	if size == "" && product.HasVariants() {
		return pkgerrors.New(pkgerrors.CodeVariantNotFound,
			fmt.Sprintf("variant selection required for %s", product.Name))
	}
	if size != "" {
		found := false
		for _, variant := range product.Variants {
			if variant.Size == size {
				available = variant.Stock
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeVariantNotFound,
				fmt.Sprintf("Variant %q not found for %s", size, product.Name))
		}
	}

	return pkgerrors.InsufficientStock(
		fmt.Sprintf("Insufficient stock for %s", product.Name),
		pkgerrors.StockShortfall{
			ProductID:   productID.String(),
			ProductName: product.Name,
			VariantSize: size,
			Requested:   qty,
			Available:   available,
		},
	)
}
