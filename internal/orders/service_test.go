package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/internal/cart"
	"github.com/dairymart/dairymart-backend/internal/inventory"
	"github.com/dairymart/dairymart-backend/pkg/config"
	"github.com/dairymart/dairymart-backend/pkg/db"
	"github.com/dairymart/dairymart-backend/pkg/db/dbtest"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/stripe"
	"github.com/dairymart/dairymart-backend/pkg/types"
)

type fakeGateway struct {
	requests []stripe.IntentRequest
	err      error
}

func (f *fakeGateway) CreateIntent(_ context.Context, req stripe.IntentRequest) (*stripe.Intent, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.Intent{
		ID:           "pi_test_123",
		ClientSecret: "pi_test_123_secret",
		AmountMinor:  req.AmountMinor,
		Currency:     "INR",
		Receipt:      req.Receipt,
		Status:       "requires_payment_method",
	}, nil
}

func (f *fakeGateway) Provider() string { return "stripe" }

type notification struct {
	userID  uuid.UUID
	orderID uuid.UUID
	status  enums.OrderStatus
}

type recordingNotifier struct {
	sent []notification
}

func (r *recordingNotifier) Notify(_ context.Context, userID, orderID uuid.UUID, status enums.OrderStatus, _ string) {
	r.sent = append(r.sent, notification{userID: userID, orderID: orderID, status: status})
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	carts    cart.Service
	gateway  *fakeGateway
	notifier *recordingNotifier
}

func newFixture(t *testing.T, policy string) *fixture {
	t.Helper()
	conn := dbtest.Open(t, "orders")
	client := db.NewFromGorm(conn)
	resolver, err := inventory.NewResolver(inventory.NewRepository(conn))
	require.NoError(t, err)
	cartRepo := cart.NewRepository(conn)
	carts, err := cart.NewService(client, cartRepo, resolver, decimal.Zero)
	require.NoError(t, err)

	gateway := &fakeGateway{}
	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{
		Tx:       client,
		Repo:     NewRepository(conn),
		Carts:    cartRepo,
		Resolver: resolver,
		Gateway:  gateway,
		Machine:  NewStatusMachine(policy),
		Notifier: notifier,
		Currency: "INR",
	})
	require.NoError(t, err)
	return &fixture{svc: svc, conn: conn, carts: carts, gateway: gateway, notifier: notifier}
}

func testAddress() *types.ShippingAddress {
	return &types.ShippingAddress{
		Name:    "Asha Patil",
		Street:  "12 MG Road",
		City:    "Pune",
		State:   "MH",
		Pincode: "411001",
		Phone:   "9876543210",
	}
}

func countOrders(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestPlaceOrderCODCommitsStockAndClearsCart(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	user := uuid.New()
	milk := dbtest.SeedProduct(t, f.conn, "milk", "999", 999,
		dbtest.Variant{Size: "500ml", Price: "32", Stock: 10},
		dbtest.Variant{Size: "1L", Price: "60", Stock: 10},
	)
	curd := dbtest.SeedProduct(t, f.conn, "curd", "45", 8)

	_, err := f.carts.AddItem(ctx, user, cart.AddItemInput{ProductID: milk.ID, Quantity: 2, VariantSize: "1L"})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, user, cart.AddItemInput{ProductID: curd.ID, Quantity: 3})
	require.NoError(t, err)

	res, err := f.svc.PlaceOrder(ctx, user, PlaceOrderInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 2)
	assert.Equal(t, "255", res.Order.ItemsPrice.String())
	assert.Equal(t, "255", res.Order.TotalPrice.String())
	assert.True(t, res.Order.StockCommitted)
	assert.Equal(t, enums.PaymentStatusPending, res.Order.PaymentStatus)
	assert.Empty(t, res.GatewayOrderID)

	assert.Equal(t, 8, dbtest.VariantStock(t, f.conn, milk.ID, "1L"))
	assert.Equal(t, 10, dbtest.VariantStock(t, f.conn, milk.ID, "500ml"))
	assert.Equal(t, 999, dbtest.ProductStock(t, f.conn, milk.ID))
	assert.Equal(t, 5, dbtest.ProductStock(t, f.conn, curd.ID))

	remaining, err := f.carts.ReadCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, remaining.Items)
	assert.True(t, remaining.Subtotal.IsZero())
}

func TestPlaceOrderCODSequentialOversell(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	ghee := dbtest.SeedProduct(t, f.conn, "ghee", "550", 5)
	items := []RequestedItem{{ProductID: ghee.ID, Quantity: 3}}

	_, err := f.svc.PlaceOrder(ctx, uuid.New(), PlaceOrderInput{Items: items, ShippingAddress: testAddress(), PaymentMethod: enums.PaymentMethodCOD})
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, uuid.New(), PlaceOrderInput{Items: items, ShippingAddress: testAddress(), PaymentMethod: enums.PaymentMethodCOD})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 2, dbtest.ProductStock(t, f.conn, ghee.ID))
	assert.EqualValues(t, 1, countOrders(t, f.conn))
}

func TestPlaceOrderCODConcurrentOversell(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	sqlDB, err := f.conn.DB()
	require.NoError(t, err)
	// sqlite serialises writers; one connection keeps shared-cache locking out of the result.
	sqlDB.SetMaxOpenConns(1)

	ghee := dbtest.SeedProduct(t, f.conn, "ghee", "550", 5)
	items := []RequestedItem{{ProductID: ghee.ID, Quantity: 3}}

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
				Items:           items,
				ShippingAddress: testAddress(),
				PaymentMethod:   enums.PaymentMethodCOD,
			})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var placed, rejected int
	for err := range errs {
		switch {
		case err == nil:
			placed++
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 2, dbtest.ProductStock(t, f.conn, ghee.ID))
	assert.EqualValues(t, 1, countOrders(t, f.conn))
}

func TestPlaceOrderCODRollsBackWhenAnyDecrementFails(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	user := uuid.New()
	butter := dbtest.SeedProduct(t, f.conn, "butter", "52", 5)
	paneer := dbtest.SeedProduct(t, f.conn, "paneer", "90", 4)

	_, err := f.carts.AddItem(ctx, user, cart.AddItemInput{ProductID: paneer.ID, Quantity: 1})
	require.NoError(t, err)

	// Each line fits on its own; together the butter lines exceed stock.
	_, err = f.svc.PlaceOrder(ctx, user, PlaceOrderInput{
		Items: []RequestedItem{
			{ProductID: paneer.ID, Quantity: 2},
			{ProductID: butter.ID, Quantity: 3},
			{ProductID: butter.ID, Quantity: 3},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	assert.Equal(t, 4, dbtest.ProductStock(t, f.conn, paneer.ID))
	assert.Equal(t, 5, dbtest.ProductStock(t, f.conn, butter.ID))
	assert.EqualValues(t, 0, countOrders(t, f.conn))

	intact, err := f.carts.ReadCart(ctx, user)
	require.NoError(t, err)
	require.Len(t, intact.Items, 1)
	assert.Equal(t, 1, intact.Items[0].Quantity)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	user := uuid.New()
	milk := dbtest.SeedProduct(t, f.conn, "milk", "999", 999, dbtest.Variant{Size: "1L", Price: "60", Stock: 10})
	curd := dbtest.SeedProduct(t, f.conn, "curd", "45", 2)

	tests := []struct {
		name  string
		input PlaceOrderInput
		code  pkgerrors.Code
	}{
		{"empty cart", PlaceOrderInput{ShippingAddress: testAddress(), PaymentMethod: enums.PaymentMethodCOD}, pkgerrors.CodeValidation},
		{"unknown method", PlaceOrderInput{Items: []RequestedItem{{ProductID: curd.ID, Quantity: 1}}, ShippingAddress: testAddress(), PaymentMethod: "card"}, pkgerrors.CodeValidation},
		{"missing address", PlaceOrderInput{Items: []RequestedItem{{ProductID: curd.ID, Quantity: 1}}, PaymentMethod: enums.PaymentMethodCOD}, pkgerrors.CodeValidation},
		{"zero quantity", PlaceOrderInput{Items: []RequestedItem{{ProductID: curd.ID}}, ShippingAddress: testAddress(), PaymentMethod: enums.PaymentMethodCOD}, pkgerrors.CodeValidation},
		{"unknown product", PlaceOrderInput{Items: []RequestedItem{{ProductID: uuid.New(), Quantity: 1}}, ShippingAddress: testAddress(), PaymentMethod: enums.PaymentMethodCOD}, pkgerrors.CodeNotFound},
		{"unknown variant", PlaceOrderInput{Items: []RequestedItem{{ProductID: milk.ID, Quantity: 1, VariantSize: "2L"}}, ShippingAddress: testAddress(), PaymentMethod: enums.PaymentMethodCOD}, pkgerrors.CodeVariantNotFound},
		{"over stock", PlaceOrderInput{Items: []RequestedItem{{ProductID: curd.ID, Quantity: 3}}, ShippingAddress: testAddress(), PaymentMethod: enums.PaymentMethodCOD}, pkgerrors.CodeInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, user, tt.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tt.code), "expected %s got %v", tt.code, err)
		})
	}
	assert.EqualValues(t, 0, countOrders(t, f.conn))
}

func TestPlaceOrderOnlineLeavesStockUncommitted(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	user := uuid.New()
	curd := dbtest.SeedProduct(t, f.conn, "curd", "45.50", 6)

	res, err := f.svc.PlaceOrder(ctx, user, PlaceOrderInput{
		Items:           []RequestedItem{{ProductID: curd.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodOnline,
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_test_123", res.GatewayOrderID)
	assert.Equal(t, "pi_test_123_secret", res.ClientSecret)
	assert.EqualValues(t, 9100, res.Amount)
	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, user.String(), f.gateway.requests[0].Metadata["user_id"])

	stored, err := f.svc.Get(ctx, user, false, res.Order.ID)
	require.NoError(t, err)
	assert.False(t, stored.StockCommitted)
	require.NotNil(t, stored.GatewayOrderID)
	assert.Equal(t, "pi_test_123", *stored.GatewayOrderID)
	assert.Equal(t, 6, dbtest.ProductStock(t, f.conn, curd.ID))
}

func TestPlaceOrderOnlineGatewayFailureCreatesNothing(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	f.gateway.err = pkgerrors.New(pkgerrors.CodeDependency, "payment gateway temporarily unavailable")
	curd := dbtest.SeedProduct(t, f.conn, "curd", "45", 6)

	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items:           []RequestedItem{{ProductID: curd.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodOnline,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.EqualValues(t, 0, countOrders(t, f.conn))
}

func TestOrderSnapshotSurvivesCatalogChanges(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	user := uuid.New()
	milk := dbtest.SeedProduct(t, f.conn, "milk", "999", 999, dbtest.Variant{Size: "1L", Price: "60", Stock: 10})

	res, err := f.svc.PlaceOrder(ctx, user, PlaceOrderInput{
		Items:           []RequestedItem{{ProductID: milk.ID, Quantity: 1, VariantSize: "1L"}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.ProductVariant{}).
		Where("product_id = ? AND size = ?", milk.ID, "1L").
		Update("price", decimal.RequireFromString("75")).Error)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", milk.ID).Update("name", "toned milk").Error)

	stored, err := f.svc.Get(ctx, user, false, res.Order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	item := stored.Items[0]
	assert.Equal(t, "milk", item.Name)
	assert.Equal(t, "60", item.UnitPrice.String())
	require.NotNil(t, item.VariantPrice)
	assert.Equal(t, "60", item.VariantPrice.String())
	assert.Equal(t, "1L", item.Variant())
	assert.Equal(t, "60", stored.ItemsPrice.String())
}

func TestGetHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	owner := uuid.New()
	curd := dbtest.SeedProduct(t, f.conn, "curd", "45", 6)
	res, err := f.svc.PlaceOrder(ctx, owner, PlaceOrderInput{
		Items:           []RequestedItem{{ProductID: curd.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, uuid.New(), false, res.Order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := f.svc.Get(ctx, uuid.New(), true, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.UserID)

	mine, err := f.svc.ListMine(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func placeCODOrder(t *testing.T, f *fixture) *models.Order {
	t.Helper()
	curd := dbtest.SeedProduct(t, f.conn, "curd-"+uuid.NewString()[:8], "45", 10)
	res, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items:           []RequestedItem{{ProductID: curd.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)
	return res.Order
}

func TestUpdateStatusDeliveredCollectsPayment(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	order := placeCODOrder(t, f)

	updated, err := f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.OrderStatus)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, enums.ShipmentStatusDelivered, updated.ShipmentStatus)
	require.NotNil(t, updated.DeliveredAt)
	require.NotNil(t, updated.PaidAt)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, order.UserID, f.notifier.sent[0].userID)
	assert.Equal(t, enums.OrderStatusDelivered, f.notifier.sent[0].status)
}

func TestUpdateStatusRejectsIllegalTransitions(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	order := placeCODOrder(t, f)

	_, err := f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Equal(t, map[string]string{"from": "Cancelled", "to": "Delivered"}, typed.Details())

	_, err = f.svc.UpdateStatus(ctx, order.ID, "Returned")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), enums.OrderStatusShipped)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	stored, err := f.svc.Get(ctx, order.UserID, false, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, stored.OrderStatus)
	assert.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
	assert.Len(t, f.notifier.sent, 1)
}

func TestTransitionGuardAndExtraColumns(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	order := placeCODOrder(t, f)

	guardErr := pkgerrors.New(pkgerrors.CodeConflict, "already shipped")
	_, err := f.svc.Transition(ctx, order.ID, enums.OrderStatusShipped, TransitionOptions{
		Guard: func(*models.Order) error { return guardErr },
	})
	require.True(t, errors.Is(err, guardErr))

	updated, err := f.svc.Transition(ctx, order.ID, enums.OrderStatusShipped, TransitionOptions{
		Extra: map[string]any{"tracking_id": "AWB123", "courier_name": "Delhivery"},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.OrderStatus)
	assert.Equal(t, enums.ShipmentStatusShipped, updated.ShipmentStatus)
	require.NotNil(t, updated.TrackingID)
	assert.Equal(t, "AWB123", *updated.TrackingID)
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t, config.DeliveredPaymentPolicyAlways)
	ctx := context.Background()
	order := placeCODOrder(t, f)

	require.NoError(t, f.svc.Delete(ctx, order.ID))
	assert.EqualValues(t, 0, countOrders(t, f.conn))
	var items int64
	require.NoError(t, f.conn.Model(&models.OrderItem{}).Count(&items).Error)
	assert.EqualValues(t, 0, items)

	err := f.svc.Delete(ctx, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestStatusMachinePlanPolicies(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		policy   string
		method   enums.PaymentMethod
		wantPaid bool
	}{
		{"always cod", config.DeliveredPaymentPolicyAlways, enums.PaymentMethodCOD, true},
		{"always online", config.DeliveredPaymentPolicyAlways, enums.PaymentMethodOnline, true},
		{"cod only cod", config.DeliveredPaymentPolicyCODOnly, enums.PaymentMethodCOD, true},
		{"cod only online", config.DeliveredPaymentPolicyCODOnly, enums.PaymentMethodOnline, false},
		{"never", config.DeliveredPaymentPolicyNever, enums.PaymentMethodCOD, false},
		{"unknown falls back", "sometimes", enums.PaymentMethodOnline, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := NewStatusMachine(tt.policy)
			machine.now = func() time.Time { return fixed }
			order := &models.Order{
				OrderStatus:   enums.OrderStatusShipped,
				PaymentMethod: tt.method,
				PaymentStatus: enums.PaymentStatusPending,
			}
			updates, err := machine.Plan(order, enums.OrderStatusDelivered)
			require.NoError(t, err)
			assert.Equal(t, fixed, updates["delivered_at"])
			_, paid := updates["payment_status"]
			assert.Equal(t, tt.wantPaid, paid)
		})
	}
}

func TestStatusMachineKeepsExistingPaidAt(t *testing.T) {
	paidAt := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	machine := NewStatusMachine(config.DeliveredPaymentPolicyAlways)
	updates, err := machine.Plan(&models.Order{
		OrderStatus:   enums.OrderStatusProcessing,
		PaymentStatus: enums.PaymentStatusPaid,
		PaidAt:        &paidAt,
	}, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.NotContains(t, updates, "payment_status")
	assert.NotContains(t, updates, "paid_at")
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(enums.OrderStatusProcessing, enums.OrderStatusShipped))
	assert.True(t, CanTransition(enums.OrderStatusProcessing, enums.OrderStatusDelivered))
	assert.True(t, CanTransition(enums.OrderStatusShipped, enums.OrderStatusCancelled))
	assert.False(t, CanTransition(enums.OrderStatusShipped, enums.OrderStatusProcessing))
	assert.False(t, CanTransition(enums.OrderStatusDelivered, enums.OrderStatusCancelled))
	assert.False(t, CanTransition(enums.OrderStatusCancelled, enums.OrderStatusProcessing))
	assert.False(t, CanTransition(enums.OrderStatusProcessing, enums.OrderStatusProcessing))
	assert.Equal(t, []Effect{EffectStampDeliveredAt, EffectCollectPaymentOnDelivery, EffectSyncShipmentStatus}, EffectsFor(enums.OrderStatusDelivered))
}
