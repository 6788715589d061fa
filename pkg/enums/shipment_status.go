package enums

// ShipmentStatus mirrors the carrier-reported state of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusPending        ShipmentStatus = "Pending"
	ShipmentStatusBooked         ShipmentStatus = "Booked"
	ShipmentStatusShipped        ShipmentStatus = "Shipped"
	ShipmentStatusInTransit      ShipmentStatus = "In Transit"
	ShipmentStatusOutForDelivery ShipmentStatus = "Out for Delivery"
	ShipmentStatusDelivered      ShipmentStatus = "Delivered"
	ShipmentStatusCancelled      ShipmentStatus = "Cancelled"
)

var shipmentStatuses = set[ShipmentStatus]{
	ShipmentStatusPending,
	ShipmentStatusBooked,
	ShipmentStatusShipped,
	ShipmentStatusInTransit,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
	ShipmentStatusCancelled,
}

func (s ShipmentStatus) String() string { return string(s) }

func (s ShipmentStatus) IsValid() bool { return shipmentStatuses.has(s) }

// IsTerminal reports whether the carrier has finished with the shipment.
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusCancelled
}

// ParseShipmentStatus matches carrier labels case-insensitively, since
// carriers disagree on casing ("IN TRANSIT", "In Transit").
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	return shipmentStatuses.parseFold("shipment status", value)
}
