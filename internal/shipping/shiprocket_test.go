package shipping

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dairymart/dairymart-backend/pkg/config"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/types"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func testShippingConfig() config.ShippingConfig {
	return config.ShippingConfig{
		Carrier:            config.ShippingCarrierShiprocket,
		ShiprocketEmail:    "ops@dairymart.in",
		ShiprocketPassword: "secret",
		PickupLocation:     "Warehouse",
	}
}

func TestShiprocketCreateShipmentLogsInOnce(t *testing.T) {
	logins := 0
	var created map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/v1/external/auth/login":
			logins++
			return jsonResponse(http.StatusOK, `{"token":"tok_123"}`), nil
		case "/v1/external/orders/create/adhoc":
			if got := req.Header.Get("Authorization"); got != "Bearer tok_123" {
				t.Fatalf("unexpected authorization header %q", got)
			}
			body, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(body, &created); err != nil {
				t.Fatalf("decode create body: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"order_id":991,"shipment_id":552,"awb_code":"AWB0001","courier_name":"Delhivery"}`), nil
		default:
			t.Fatalf("unexpected path %s", req.URL.Path)
			return nil, nil
		}
	})

	client, err := NewShiprocketClient(testShippingConfig(), nil,
		WithBaseURL("http://shiprocket.test/v1/external"),
		WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	size := "1L"
	order := &models.Order{
		ID:            uuid.New(),
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusPending,
		TotalPrice:    decimal.RequireFromString("120"),
		ShippingAddress: types.ShippingAddress{
			Name: "Asha", Street: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001", Phone: "9876543210",
		},
		Items: []models.OrderItem{{ProductID: uuid.New(), Name: "milk", Quantity: 2, UnitPrice: decimal.RequireFromString("60"), VariantSize: &size}},
	}

	for i := 0; i < 2; i++ {
		shipment, err := client.CreateShipment(context.Background(), order)
		if err != nil {
			t.Fatalf("create shipment: %v", err)
		}
		if shipment.TrackingID != "AWB0001" || shipment.ShipmentID != "552" || shipment.Courier != "Delhivery" {
			t.Fatalf("unexpected shipment %+v", shipment)
		}
	}
	if logins != 1 {
		t.Fatalf("expected token to be cached, logged in %d times", logins)
	}
	if created["payment_method"] != "COD" || created["pickup_location"] != "Warehouse" || created["sub_total"] != "120.00" {
		t.Fatalf("unexpected create payload %v", created)
	}
}

func TestShiprocketTrackMapsStatus(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/auth/login") {
			return jsonResponse(http.StatusOK, `{"token":"tok"}`), nil
		}
		if req.URL.Path != "/v1/external/courier/track/awb/AWB0001" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"tracking_data":{"shipment_track":[{"current_status":"OUT FOR DELIVERY"}],
			"shipment_track_activities":[{"date":"2026-03-02 09:15:00","status":"OFD","activity":"Out for delivery","location":"Pune"}]}}`), nil
	})
	client, err := NewShiprocketClient(testShippingConfig(), nil,
		WithBaseURL("http://shiprocket.test/v1/external"),
		WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	info, err := client.Track(context.Background(), "AWB0001")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if info.Status != enums.ShipmentStatusOutForDelivery {
		t.Fatalf("expected Out for Delivery, got %q", info.Status)
	}
	if info.Location != "Pune" || info.At.Hour() != 9 {
		t.Fatalf("unexpected tracking info %+v", info)
	}
}

func TestShiprocketBreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/auth/login") {
			return jsonResponse(http.StatusOK, `{"token":"tok"}`), nil
		}
		calls++
		return jsonResponse(http.StatusBadGateway, `upstream down`), nil
	})
	client, err := NewShiprocketClient(testShippingConfig(), nil,
		WithBaseURL("http://shiprocket.test"),
		WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	for i := 0; i < 7; i++ {
		_, err := client.Track(context.Background(), "AWB0001")
		if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			t.Fatalf("expected dependency error, got %v", err)
		}
	}
	if calls != 5 {
		t.Fatalf("expected breaker to stop calls after 5 failures, got %d", calls)
	}
}

func TestNewShiprocketClientRequiresCredentials(t *testing.T) {
	if _, err := NewShiprocketClient(config.ShippingConfig{}, nil); err == nil {
		t.Fatal("expected missing credentials to fail")
	}
}
