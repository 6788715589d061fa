package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, created_at ASC")
}

// FindByUser loads the user's cart with its lines.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// LockByUser loads the user's cart row FOR UPDATE. Must run inside a transaction.
func (r *Repository) LockByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Scopes(preloadItems).
		Where("cart_id = ?", cart.ID).
		Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateIfMissing inserts an empty cart for the user unless one already exists.
func (r *Repository) CreateIfMissing(ctx context.Context, userID uuid.UUID, deliveryCharge decimal.Decimal) error {
	cart := &models.Cart{
		UserID:         userID,
		Subtotal:       decimal.Zero,
		DeliveryCharge: deliveryCharge,
		GrandTotal:     deliveryCharge,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(cart).Error
}

// SaveTotals persists the cart's computed totals.
func (r *Repository) SaveTotals(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"subtotal":        cart.Subtotal,
			"delivery_charge": cart.DeliveryCharge,
			"grand_total":     cart.GrandTotal,
		}).Error
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem writes the mutable fields of a cart line.
func (r *Repository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
			"line_total": item.LineTotal,
		}).Error
}

// DeleteItem removes a single cart line.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{}).Error
}

// DeleteItems removes every line of a cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// ClearByUser empties the user's cart: lines deleted, subtotal zeroed and the
// grand total reset to the delivery charge. A user without a cart is a no-op.
func (r *Repository) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	if err := r.DeleteItems(ctx, cart.ID); err != nil {
		return err
	}
	cart.Subtotal = decimal.Zero
	cart.GrandTotal = cart.DeliveryCharge
	return r.SaveTotals(ctx, &cart)
}
