package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/internal/inventory"
	"github.com/dairymart/dairymart-backend/pkg/db"
	"github.com/dairymart/dairymart-backend/pkg/db/dbtest"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
)

func newTestService(t *testing.T, deliveryCharge string) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, "cart")
	resolver, err := inventory.NewResolver(inventory.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(db.NewFromGorm(conn), NewRepository(conn), resolver, decimal.RequireFromString(deliveryCharge))
	require.NoError(t, err)
	return svc, conn
}

func assertTotalsInvariant(t *testing.T, c *Cart) {
	t.Helper()
	sum := decimal.Zero
	for _, item := range c.Items {
		assert.True(t, item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))),
			"line total %s != %s x %d", item.LineTotal, item.UnitPrice, item.Quantity)
		sum = sum.Add(item.LineTotal)
	}
	assert.True(t, c.Subtotal.Equal(sum), "subtotal %s != %s", c.Subtotal, sum)
	assert.True(t, c.GrandTotal.Equal(sum.Add(c.DeliveryCharge)), "grand total %s != %s + %s", c.GrandTotal, sum, c.DeliveryCharge)
}

func TestAddItemVariantSnapshot(t *testing.T) {
	svc, conn := newTestService(t, "0")
	user := uuid.New()
	milk := dbtest.SeedProduct(t, conn, "milk", "999", 999,
		dbtest.Variant{Size: "500ml", Price: "32", Stock: 10},
		dbtest.Variant{Size: "1L", Price: "60", Stock: 10},
	)

	got, err := svc.AddItem(context.Background(), user, AddItemInput{ProductID: milk.ID, Quantity: 2, VariantSize: "1L"})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "1L", got.Items[0].VariantSize)
	assert.Equal(t, "60", got.Items[0].UnitPrice.String())
	assert.Equal(t, "120", got.Items[0].LineTotal.String())
	assert.Equal(t, "120", got.Subtotal.String())
	assertTotalsInvariant(t, got)
}

func TestAddItemDefaultsQuantityAndMerges(t *testing.T) {
	svc, conn := newTestService(t, "25")
	user := uuid.New()
	paneer := dbtest.SeedProduct(t, conn, "paneer", "90", 3)
	ctx := context.Background()

	got, err := svc.AddItem(ctx, user, AddItemInput{ProductID: paneer.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)
	assert.Equal(t, "25", got.DeliveryCharge.String())

	got, err = svc.AddItem(ctx, user, AddItemInput{ProductID: paneer.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, "295", got.GrandTotal.String())
	assertTotalsInvariant(t, got)

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: paneer.ID, Quantity: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Contains(t, err.Error(), "Only 3 available")
}

func TestAddItemSeparateLinesPerVariant(t *testing.T) {
	svc, conn := newTestService(t, "0")
	user := uuid.New()
	curd := dbtest.SeedProduct(t, conn, "curd", "0", 0,
		dbtest.Variant{Size: "200g", Price: "20", Stock: 5},
		dbtest.Variant{Size: "400g", Price: "38", Stock: 5},
	)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user, AddItemInput{ProductID: curd.ID, Quantity: 1, VariantSize: "200g"})
	require.NoError(t, err)
	got, err := svc.AddItem(ctx, user, AddItemInput{ProductID: curd.ID, Quantity: 2, VariantSize: "400g"})
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "96", got.Subtotal.String())
	assertTotalsInvariant(t, got)
}

func TestAddItemErrors(t *testing.T) {
	svc, conn := newTestService(t, "0")
	user := uuid.New()
	ctx := context.Background()
	milk := dbtest.SeedProduct(t, conn, "milk", "0", 0, dbtest.Variant{Size: "1L", Price: "60", Stock: 2})

	_, err := svc.AddItem(ctx, user, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: milk.ID, Quantity: 1, VariantSize: "5L"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeVariantNotFound))

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: milk.ID, Quantity: 3, VariantSize: "1L"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: milk.ID, Quantity: -1, VariantSize: "1L"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReadCartMissingReturnsEmpty(t *testing.T) {
	svc, conn := newTestService(t, "40")
	user := uuid.New()

	got, err := svc.ReadCart(context.Background(), user)
	require.NoError(t, err)
	assert.Nil(t, got.ID)
	assert.Empty(t, got.Items)
	assert.True(t, got.GrandTotal.IsZero())

	var count int64
	require.NoError(t, conn.Model(&models.Cart{}).Count(&count).Error)
	assert.Zero(t, count, "reading must not create a cart")
}

func TestReadCartReconciles(t *testing.T) {
	svc, conn := newTestService(t, "10")
	user := uuid.New()
	ctx := context.Background()
	butter := dbtest.SeedProduct(t, conn, "butter", "50", 10)
	ghee := dbtest.SeedProduct(t, conn, "ghee", "400", 10)
	milk := dbtest.SeedProduct(t, conn, "milk", "0", 0, dbtest.Variant{Size: "1L", Price: "60", Stock: 10})
	cheese := dbtest.SeedProduct(t, conn, "cheese", "150", 10)
	lassi := dbtest.SeedProduct(t, conn, "lassi", "25", 10)

	for _, in := range []AddItemInput{
		{ProductID: butter.ID, Quantity: 4},
		{ProductID: ghee.ID, Quantity: 2},
		{ProductID: milk.ID, Quantity: 1, VariantSize: "1L"},
		{ProductID: cheese.ID, Quantity: 3},
		{ProductID: lassi.ID, Quantity: 1},
	} {
		_, err := svc.AddItem(ctx, user, in)
		require.NoError(t, err)
	}

	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", butter.ID).Update("price", decimal.RequireFromString("55")).Error)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", ghee.ID).Update("stock", 1).Error)
	require.NoError(t, conn.Where("product_id = ?", milk.ID).Delete(&models.ProductVariant{}).Error)
	require.NoError(t, conn.Where("id = ?", cheese.ID).Delete(&models.Product{}).Error)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", lassi.ID).Update("stock", 0).Error)

	got, err := svc.ReadCart(ctx, user)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assertTotalsInvariant(t, got)
	assert.Equal(t, "220", got.Items[0].LineTotal.String())
	assert.Equal(t, 1, got.Items[1].Quantity)
	assert.Equal(t, "620", got.Subtotal.String())
	assert.Equal(t, "630", got.GrandTotal.String())

	byName := map[string]Adjustment{}
	for _, adj := range got.Adjustments {
		byName[adj.ProductName] = adj
	}
	require.Len(t, byName, 5)
	assert.Equal(t, reasonPriceChanged, byName["butter"].Reason)
	assert.Equal(t, "50", byName["butter"].PreviousUnitPrice.String())
	assert.Equal(t, 2, byName["ghee"].PreviousQuantity)
	assert.Equal(t, 1, byName["ghee"].Quantity)
	assert.True(t, byName["milk"].Removed)
	assert.Equal(t, reasonVariantUnavailable, byName["milk"].Reason)
	assert.True(t, byName["cheese"].Removed)
	assert.Equal(t, reasonProductUnavailable, byName["cheese"].Reason)
	assert.True(t, byName["lassi"].Removed)
	assert.Equal(t, reasonOutOfStock, byName["lassi"].Reason)

	var stored models.Cart
	require.NoError(t, conn.Preload("Items").First(&stored, "user_id = ?", user).Error)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, "630", stored.GrandTotal.String())

	again, err := svc.ReadCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, again.Adjustments)
}

func TestUpdateItem(t *testing.T) {
	svc, conn := newTestService(t, "0")
	user := uuid.New()
	ctx := context.Background()
	butter := dbtest.SeedProduct(t, conn, "butter", "50", 5)
	ghee := dbtest.SeedProduct(t, conn, "ghee", "400", 5)

	_, err := svc.UpdateItem(ctx, user, UpdateItemInput{ProductID: butter.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "missing cart: %v", err)

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: butter.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: ghee.ID, Quantity: 1})
	require.NoError(t, err)

	got, err := svc.UpdateItem(ctx, user, UpdateItemInput{ProductID: butter.ID, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, "600", got.Subtotal.String())
	assertTotalsInvariant(t, got)

	_, err = svc.UpdateItem(ctx, user, UpdateItemInput{ProductID: butter.ID, Quantity: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	_, err = svc.UpdateItem(ctx, user, UpdateItemInput{ProductID: butter.ID, Quantity: 1, VariantSize: "1L"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "missing line: %v", err)

	got, err = svc.UpdateItem(ctx, user, UpdateItemInput{ProductID: butter.ID, Quantity: 0})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "ghee", got.Items[0].ProductName)
	assertTotalsInvariant(t, got)
}

func TestRemoveItemAndClear(t *testing.T) {
	svc, conn := newTestService(t, "30")
	user := uuid.New()
	ctx := context.Background()
	butter := dbtest.SeedProduct(t, conn, "butter", "50", 5)
	ghee := dbtest.SeedProduct(t, conn, "ghee", "400", 5)

	_, err := svc.Clear(ctx, user)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: butter.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: ghee.ID, Quantity: 1})
	require.NoError(t, err)

	got, err := svc.RemoveItem(ctx, user, ghee.ID, "")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "130", got.GrandTotal.String())
	assertTotalsInvariant(t, got)

	got, err = svc.Clear(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.True(t, got.Subtotal.IsZero())
	assert.Equal(t, "30", got.GrandTotal.String())
	assertTotalsInvariant(t, got)
}

func TestClearByUserWithoutCartIsNoop(t *testing.T) {
	conn := dbtest.Open(t, "cart_clear")
	require.NoError(t, NewRepository(conn).ClearByUser(context.Background(), uuid.New()))
}
