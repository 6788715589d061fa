package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("Delivered")
	if err != nil || status != OrderStatusDelivered {
		t.Fatalf("expected Delivered, got %q err=%v", status, err)
	}
	if _, err := ParseOrderStatus("delivered"); err == nil {
		t.Fatalf("expected case-sensitive parse to reject lowercase")
	}
}

func TestShipmentStatusWithSpaces(t *testing.T) {
	status, err := ParseShipmentStatus("Out for Delivery")
	if err != nil || status != ShipmentStatusOutForDelivery {
		t.Fatalf("expected Out for Delivery, got %q err=%v", status, err)
	}
	if !ShipmentStatusInTransit.IsValid() {
		t.Fatalf("expected In Transit to be valid")
	}
}

func TestPaymentMethodValues(t *testing.T) {
	if PaymentMethodCOD.String() != "COD" || PaymentMethodOnline.String() != "online" {
		t.Fatalf("unexpected payment method values")
	}
	if PaymentMethod("card").IsValid() {
		t.Fatalf("card is not a supported payment method")
	}
}

func TestParseRole(t *testing.T) {
	if role, err := ParseRole("admin"); err != nil || role != RoleAdmin {
		t.Fatalf("expected admin role, got %q err=%v", role, err)
	}
	if _, err := ParseRole("vendor"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestParsePaymentMethodIgnoresCase(t *testing.T) {
	for raw, want := range map[string]PaymentMethod{"cod": PaymentMethodCOD, " ONLINE ": PaymentMethodOnline, "COD": PaymentMethodCOD} {
		got, err := ParsePaymentMethod(raw)
		if err != nil || got != want {
			t.Fatalf("%q: expected %q got %q err=%v", raw, want, got, err)
		}
	}
	if _, err := ParsePaymentMethod("upi"); err == nil {
		t.Fatal("expected upi to be rejected")
	}
}

func TestParseShipmentStatusNormalisesCarrierCasing(t *testing.T) {
	status, err := ParseShipmentStatus("IN TRANSIT")
	if err != nil || status != ShipmentStatusInTransit {
		t.Fatalf("expected In Transit, got %q err=%v", status, err)
	}
}
