// Package dbtest opens throwaway sqlite databases migrated with every model,
// plus seed helpers shared by repository and transaction tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
)

// Open returns an isolated in-memory database with the full schema.
func Open(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Variant describes a variant row for SeedProduct.
type Variant struct {
	Size  string
	Price string
	Stock int
}

// SeedProduct inserts an active product. When variants are given the base
// price and stock are set to values that must never be used.
func SeedProduct(t *testing.T, db *gorm.DB, name, price string, stock int, variants ...Variant) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Images:   []string{"https://cdn.dairymart.in/" + name + ".jpg"},
		IsActive: true,
	}
	for i, v := range variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			Size:     v.Size,
			Price:    decimal.RequireFromString(v.Price),
			Stock:    v.Stock,
			Position: i,
		})
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// ProductStock reads the current base stock of a product.
func ProductStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Stock
}

// VariantStock reads the current stock of a product variant.
func VariantStock(t *testing.T, db *gorm.DB, productID uuid.UUID, size string) int {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, "product_id = ? AND size = ?", productID, size).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	return variant.Stock
}
