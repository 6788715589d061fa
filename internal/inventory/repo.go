package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
)

// Repository reads catalog rows and applies conditional stock decrements.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProduct loads a product with its variants ordered by position.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementProductStock subtracts qty from the base product stock when enough is
// on hand. Products that carry variants are never matched.
func (r *Repository) DecrementProductStock(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Where("NOT EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = products.id)").
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected, res.Error
}

// DecrementVariantStock subtracts qty from a variant when enough is on hand.
func (r *Repository) DecrementVariantStock(ctx context.Context, productID uuid.UUID, size string, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("product_id = ? AND size = ? AND stock >= ?", productID, size, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected, res.Error
}
