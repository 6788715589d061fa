package types

import (
	"strings"
	"testing"
	"time"
)

func TestShippingAddressNormalizeAndValidate(t *testing.T) {
	addr := ShippingAddress{Name: "  Asha ", Street: " 12 MG Road", City: "Pune ", Pincode: "411001", Phone: "9876543210"}
	addr.Normalize()
	if addr.Name != "Asha" || addr.City != "Pune" {
		t.Fatalf("expected trimmed fields, got %+v", addr)
	}
	if err := addr.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if got := addr.OneLine(); got != "12 MG Road, Pune, 411001" {
		t.Fatalf("unexpected one line %q", got)
	}
}

func TestShippingAddressValidateListsMissing(t *testing.T) {
	err := ShippingAddress{Name: "Asha"}.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, field := range []string{"street", "city", "pincode", "phone"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected %s in %q", field, err.Error())
		}
	}
}

func TestTrackingHistoryLatest(t *testing.T) {
	if _, ok := (TrackingHistory{}).Latest(); ok {
		t.Fatalf("expected empty history to have no latest entry")
	}
	now := time.Now()
	history := TrackingHistory{
		{Status: "Booked", At: now.Add(-time.Hour)},
		{Status: "In Transit", At: now},
	}
	latest, ok := history.Latest()
	if !ok || latest.Status != "In Transit" {
		t.Fatalf("unexpected latest %+v", latest)
	}
}
