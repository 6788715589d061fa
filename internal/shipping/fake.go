package shipping

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
)

const fakeCourier = "FAKECOURIER"

var fakeTrackingStatuses = []enums.ShipmentStatus{
	enums.ShipmentStatusBooked,
	enums.ShipmentStatusInTransit,
	enums.ShipmentStatusOutForDelivery,
	enums.ShipmentStatusDelivered,
}

// FakeCarrier issues TEST tracking numbers and random checkpoints. It is the
// default carrier for development and tests.
type FakeCarrier struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewFakeCarrier seeds the carrier; a zero seed uses the current time.
func NewFakeCarrier(seed int64) *FakeCarrier {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &FakeCarrier{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (c *FakeCarrier) Name() string {
	return "fake"
}

func (c *FakeCarrier) CreateShipment(_ context.Context, order *models.Order) (*Shipment, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Shipment{
		TrackingID: fmt.Sprintf("TEST%06d", c.rng.Intn(1_000_000)),
		ShipmentID: fmt.Sprintf("SHIP%d", c.rng.Int63n(1_000_000_000)),
		Courier:    fakeCourier,
	}, nil
}

func (c *FakeCarrier) Track(_ context.Context, trackingID string) (*TrackingInfo, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}
	c.mu.Lock()
	status := fakeTrackingStatuses[c.rng.Intn(len(fakeTrackingStatuses))]
	c.mu.Unlock()
	return &TrackingInfo{
		TrackingID:  trackingID,
		Status:      status,
		RawStatus:   string(status),
		Location:    "Hub",
		Description: "Shipment " + strings.ToLower(string(status)),
		At:          c.now().UTC(),
	}, nil
}
