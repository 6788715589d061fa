package types

import (
	"fmt"
	"strings"
)

// ShippingAddress is copied onto each order so later profile edits never
// change where an order was sent.
type ShippingAddress struct {
	Name    string `json:"name" validate:"required,max=120"`
	Street  string `json:"street" validate:"required,max=255"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
	Pincode string `json:"pincode" validate:"required,numeric,len=6"`
	Phone   string `json:"phone" validate:"required,min=10,max=15"`
}

// Normalize trims every field in place.
func (a *ShippingAddress) Normalize() {
	if a == nil {
		return
	}
	a.Name = strings.TrimSpace(a.Name)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.Phone = strings.TrimSpace(a.Phone)
}

// Validate checks the minimum fields a carrier needs.
func (a ShippingAddress) Validate() error {
	missing := []string{}
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if a.Street == "" {
		missing = append(missing, "street")
	}
	if a.City == "" {
		missing = append(missing, "city")
	}
	if a.Pincode == "" {
		missing = append(missing, "pincode")
	}
	if a.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("shipping address: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// OneLine renders the address for carrier payloads and notifications.
func (a ShippingAddress) OneLine() string {
	parts := []string{}
	for _, part := range []string{a.Street, a.City, a.State, a.Pincode} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
