package shipping

import (
	"context"
	"strings"
	"time"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
)

// Carrier books shipments and reports their progress.
type Carrier interface {
	Name() string
	CreateShipment(ctx context.Context, order *models.Order) (*Shipment, error)
	Track(ctx context.Context, trackingID string) (*TrackingInfo, error)
}

// Shipment identifies a booked consignment.
type Shipment struct {
	TrackingID string `json:"tracking_id"`
	ShipmentID string `json:"shipment_id"`
	Courier    string `json:"courier_name"`
}

// TrackingInfo is the latest carrier checkpoint for a consignment.
type TrackingInfo struct {
	TrackingID  string               `json:"tracking_id"`
	Status      enums.ShipmentStatus `json:"status"`
	RawStatus   string               `json:"raw_status,omitempty"`
	Location    string               `json:"location,omitempty"`
	Description string               `json:"description,omitempty"`
	At          time.Time            `json:"at"`
}

var carrierStatusAliases = map[string]enums.ShipmentStatus{
	"pickup scheduled":   enums.ShipmentStatusBooked,
	"awb assigned":       enums.ShipmentStatusBooked,
	"manifest generated": enums.ShipmentStatusBooked,
	"picked up":          enums.ShipmentStatusShipped,
	"in-transit":         enums.ShipmentStatusInTransit,
	"out-for-delivery":   enums.ShipmentStatusOutForDelivery,
	"canceled":           enums.ShipmentStatusCancelled,
	"rto initiated":      enums.ShipmentStatusCancelled,
}

// NormalizeStatus maps a carrier status string onto a ShipmentStatus.
// Unknown values report false.
func NormalizeStatus(raw string) (enums.ShipmentStatus, bool) {
	cleaned := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if cleaned == "" {
		return "", false
	}
	if status, err := enums.ParseShipmentStatus(cleaned); err == nil {
		return status, true
	}
	status, ok := carrierStatusAliases[cleaned]
	return status, ok
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
