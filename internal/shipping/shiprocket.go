package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dairymart/dairymart-backend/pkg/config"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

const (
	defaultShiprocketBaseURL        = "https://apiv2.shiprocket.in/v1/external"
	shiprocketTokenTTL              = 9 * 24 * time.Hour
	responseBodyReadLimit     int64 = 1024
	shiprocketTimestampLayout       = "2006-01-02 15:04:05"
)

var errCredentialsRequired = errors.New("shiprocket email and password are required")

// ShiprocketClient books and tracks consignments through the Shiprocket API.
type ShiprocketClient struct {
	httpClient     *http.Client
	baseURL        string
	email          string
	password       string
	pickupLocation string
	breaker        *gobreaker.CircuitBreaker
	logg           *logger.Logger
	now            func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures optional client behavior.
type Option func(*ShiprocketClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ShiprocketClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *ShiprocketClient) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewShiprocketClient builds the client from shipping configuration.
func NewShiprocketClient(cfg config.ShippingConfig, logg *logger.Logger, opts ...Option) (*ShiprocketClient, error) {
	email := strings.TrimSpace(cfg.ShiprocketEmail)
	if email == "" || cfg.ShiprocketPassword == "" {
		return nil, errCredentialsRequired
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &ShiprocketClient{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        defaultShiprocketBaseURL,
		email:          email,
		password:       cfg.ShiprocketPassword,
		pickupLocation: strings.TrimSpace(cfg.PickupLocation),
		logg:           logg,
		now:            time.Now,
	}
	if trimmed := strings.TrimSpace(cfg.ShiprocketBaseURL); trimmed != "" {
		client.baseURL = trimmed
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.pickupLocation == "" {
		client.pickupLocation = "Primary"
	}
	client.breaker = newBreaker("shiprocket", logg)
	return client, nil
}

func newBreaker(name string, logg *logger.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Client errors mean the carrier answered; they say nothing about its health.
			var statusErr *statusError
			return errors.As(err, &statusErr) && statusErr.code < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logg == nil {
				return
			}
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "carrier circuit breaker state changed")
		},
	})
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func (c *ShiprocketClient) Name() string {
	return config.ShippingCarrierShiprocket
}

type shiprocketOrderItem struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Units        int    `json:"units"`
	SellingPrice string `json:"selling_price"`
}

type shiprocketOrderRequest struct {
	OrderID             string                `json:"order_id"`
	OrderDate           string                `json:"order_date"`
	PickupLocation      string                `json:"pickup_location"`
	BillingCustomerName string                `json:"billing_customer_name"`
	BillingAddress      string                `json:"billing_address"`
	BillingCity         string                `json:"billing_city"`
	BillingPincode      string                `json:"billing_pincode"`
	BillingState        string                `json:"billing_state"`
	BillingCountry      string                `json:"billing_country"`
	BillingPhone        string                `json:"billing_phone"`
	ShippingIsBilling   bool                  `json:"shipping_is_billing"`
	OrderItems          []shiprocketOrderItem `json:"order_items"`
	PaymentMethod       string                `json:"payment_method"`
	SubTotal            string                `json:"sub_total"`
	Length              float64               `json:"length"`
	Breadth             float64               `json:"breadth"`
	Height              float64               `json:"height"`
	Weight              float64               `json:"weight"`
}

func (c *ShiprocketClient) CreateShipment(ctx context.Context, order *models.Order) (*Shipment, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	addr := order.ShippingAddress
	payload := shiprocketOrderRequest{
		OrderID:             order.ID.String(),
		OrderDate:           order.CreatedAt.UTC().Format(shiprocketTimestampLayout),
		PickupLocation:      c.pickupLocation,
		BillingCustomerName: addr.Name,
		BillingAddress:      addr.Street,
		BillingCity:         addr.City,
		BillingPincode:      addr.Pincode,
		BillingState:        addr.State,
		BillingCountry:      "India",
		BillingPhone:        addr.Phone,
		ShippingIsBilling:   true,
		PaymentMethod:       "Prepaid",
		SubTotal:            order.TotalPrice.StringFixed(2),
		Length:              10,
		Breadth:             10,
		Height:              10,
		Weight:              0.5,
	}
	if order.PaymentMethod == enums.PaymentMethodCOD && order.PaymentStatus != enums.PaymentStatusPaid {
		payload.PaymentMethod = "COD"
	}
	for _, item := range order.Items {
		sku := item.ProductID.String()
		if size := item.Variant(); size != "" {
			sku += "-" + size
		}
		payload.OrderItems = append(payload.OrderItems, shiprocketOrderItem{
			Name:         item.Name,
			SKU:          sku,
			Units:        item.Quantity,
			SellingPrice: item.UnitPrice.StringFixed(2),
		})
	}

	var resp struct {
		OrderID    json.Number `json:"order_id"`
		ShipmentID json.Number `json:"shipment_id"`
		AWBCode    string      `json:"awb_code"`
		Courier    string      `json:"courier_name"`
	}
	if err := c.do(ctx, http.MethodPost, "orders/create/adhoc", payload, &resp, true); err != nil {
		return nil, err
	}
	tracking := strings.TrimSpace(resp.AWBCode)
	if tracking == "" {
		tracking = resp.ShipmentID.String()
	}
	return &Shipment{
		TrackingID: tracking,
		ShipmentID: resp.ShipmentID.String(),
		Courier:    resp.Courier,
	}, nil
}

func (c *ShiprocketClient) Track(ctx context.Context, trackingID string) (*TrackingInfo, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}

	var resp struct {
		TrackingData struct {
			ShipmentTrack []struct {
				CurrentStatus string `json:"current_status"`
			} `json:"shipment_track"`
			Activities []struct {
				Date     string `json:"date"`
				Status   string `json:"status"`
				Activity string `json:"activity"`
				Location string `json:"location"`
			} `json:"shipment_track_activities"`
		} `json:"tracking_data"`
	}
	path := "courier/track/awb/" + url.PathEscape(trackingID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}

	info := &TrackingInfo{TrackingID: trackingID, At: c.now().UTC()}
	if len(resp.TrackingData.ShipmentTrack) > 0 {
		info.RawStatus = resp.TrackingData.ShipmentTrack[0].CurrentStatus
	}
	if len(resp.TrackingData.Activities) > 0 {
		latest := resp.TrackingData.Activities[0]
		info.Location = latest.Location
		info.Description = latest.Activity
		if info.RawStatus == "" {
			info.RawStatus = latest.Status
		}
		if at, err := time.Parse(shiprocketTimestampLayout, latest.Date); err == nil {
			info.At = at.UTC()
		}
	}
	if status, ok := NormalizeStatus(info.RawStatus); ok {
		info.Status = status
	}
	return info, nil
}

func (c *ShiprocketClient) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	var resp struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"email": c.email, "password": c.password}
	if err := c.do(ctx, http.MethodPost, "auth/login", payload, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "shiprocket login returned no token")
	}
	c.token = resp.Token
	c.tokenExpiry = c.now().Add(shiprocketTokenTTL)
	return c.token, nil
}

func (c *ShiprocketClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *ShiprocketClient) do(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	token := ""
	if authenticated {
		var err error
		if token, err = c.authToken(ctx); err != nil {
			return err
		}
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.send(ctx, method, path, token, body, out)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shipping carrier temporarily unavailable")
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) && statusErr.code == http.StatusUnauthorized && authenticated {
		c.invalidateToken()
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shiprocket %s failed", path))
}

func (c *ShiprocketClient) send(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *ShiprocketClient) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
}
