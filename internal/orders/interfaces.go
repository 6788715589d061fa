package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/internal/inventory"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	"github.com/dairymart/dairymart-backend/pkg/stripe"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByTrackingID(ctx context.Context, trackingID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListTrackable(ctx context.Context, limit int) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ClaimStockCommit(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventoryResolver interface {
	Resolve(ctx context.Context, productID uuid.UUID, variantSize string) (*inventory.Resolution, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantSize string, qty int) error
}

// PaymentGateway opens gateway orders for online checkout.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req stripe.IntentRequest) (*stripe.Intent, error)
	Provider() string
}

// StatusNotifier is told about committed status changes. Implementations must not block.
type StatusNotifier interface {
	Notify(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus, trackingID string)
}

type metricsRecorder interface {
	OrderPlaced(method string)
	CheckoutFailed(reason string)
	StockConflict(path string)
	StatusTransition(from, to string)
}
