package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/internal/orders"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
	"github.com/dairymart/dairymart-backend/pkg/types"
)

// Service books shipments for orders and records carrier progress.
type Service interface {
	Ship(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Track(ctx context.Context, callerID uuid.UUID, isAdmin bool, trackingID string) (*TrackResult, error)
	SyncShipments(ctx context.Context, limit int) (SyncReport, error)
}

// TrackResult pairs the carrier checkpoint with the updated order.
type TrackResult struct {
	Tracking *TrackingInfo `json:"tracking"`
	Order    *models.Order `json:"order"`
}

// SyncReport summarises one tracking sync pass.
type SyncReport struct {
	Checked int
	Updated int
	Failed  int
}

type transitioner interface {
	Transition(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, opts orders.TransitionOptions) (*models.Order, error)
}

type service struct {
	carrier   Carrier
	repo      orders.Repository
	lifecycle transitioner
	logg      *logger.Logger
}

// NewService wires the shipping service.
func NewService(carrier Carrier, repo orders.Repository, lifecycle transitioner, logg *logger.Logger) (Service, error) {
	if carrier == nil {
		return nil, fmt.Errorf("carrier required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if lifecycle == nil {
		return nil, fmt.Errorf("order lifecycle required")
	}
	return &service{carrier: carrier, repo: repo, lifecycle: lifecycle, logg: logg}, nil
}

func hasTracking(order *models.Order) bool {
	return order.TrackingID != nil && strings.TrimSpace(*order.TrackingID) != ""
}

func errAlreadyShipped() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "order already has a tracking id")
}

func (s *service) Ship(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if hasTracking(order) {
		return nil, errAlreadyShipped()
	}
	if !orders.CanTransition(order.OrderStatus, enums.OrderStatusShipped) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.OrderStatus, enums.OrderStatusShipped)).
			WithDetails(map[string]string{"from": string(order.OrderStatus), "to": string(enums.OrderStatusShipped)})
	}

	shipment, err := s.carrier.CreateShipment(ctx, order)
	if err != nil {
		return nil, err
	}

	history := order.TrackingHistory.Append(types.TrackingEvent{
		Status:      string(enums.ShipmentStatusBooked),
		Description: "Shipment booked with " + shipment.Courier,
		At:          nowUTC(),
	})

	updated, err := s.lifecycle.Transition(ctx, order.ID, enums.OrderStatusShipped, orders.TransitionOptions{
		Guard: func(locked *models.Order) error {
			if hasTracking(locked) {
				return errAlreadyShipped()
			}
			return nil
		},
		Extra: map[string]any{
			"tracking_id":      shipment.TrackingID,
			"shipment_id":      shipment.ShipmentID,
			"courier_name":     shipment.Courier,
			"tracking_history": history,
		},
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"carrier":     s.carrier.Name(),
			"tracking_id": shipment.TrackingID,
		})
		s.logg.Info(logCtx, "order shipped")
	}
	return updated, nil
}

func (s *service) Track(ctx context.Context, callerID uuid.UUID, isAdmin bool, trackingID string) (*TrackResult, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}
	order, err := s.repo.FindByTrackingID(ctx, trackingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !isAdmin && order.UserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}

	info, err := s.carrier.Track(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	updated, _, err := s.record(ctx, order, info)
	if err != nil {
		return nil, err
	}
	return &TrackResult{Tracking: info, Order: updated}, nil
}

// SyncShipments polls the carrier for every in-flight shipment. Order status is
// never changed here; only shipment status and tracking history move.
func (s *service) SyncShipments(ctx context.Context, limit int) (SyncReport, error) {
	report := SyncReport{}
	pending, err := s.repo.ListTrackable(ctx, limit)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list trackable orders")
	}

	var errs error
	for i := range pending {
		order := &pending[i]
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		report.Checked++
		info, err := s.carrier.Track(ctx, *order.TrackingID)
		if err != nil {
			report.Failed++
			errs = multierr.Append(errs, fmt.Errorf("track %s: %w", *order.TrackingID, err))
			continue
		}
		_, changed, err := s.record(ctx, order, info)
		if err != nil {
			report.Failed++
			errs = multierr.Append(errs, fmt.Errorf("record %s: %w", *order.TrackingID, err))
			continue
		}
		if changed {
			report.Updated++
		}
	}
	return report, errs
}

// record appends a checkpoint when it differs from the latest one and mirrors
// a recognised carrier status into shipment_status.
func (s *service) record(ctx context.Context, order *models.Order, info *TrackingInfo) (*models.Order, bool, error) {
	label := info.RawStatus
	if info.Status != "" {
		label = string(info.Status)
	}
	event := types.TrackingEvent{
		Status:      label,
		Location:    info.Location,
		Description: info.Description,
		At:          info.At,
	}
	if event.At.IsZero() {
		event.At = nowUTC()
	}

	updates := map[string]any{}
	latest, ok := order.TrackingHistory.Latest()
	if !ok || latest.Status != event.Status || latest.Description != event.Description || latest.Location != event.Location {
		updates["tracking_history"] = order.TrackingHistory.Append(event)
	}
	if info.Status != "" && info.Status != order.ShipmentStatus {
		updates["shipment_status"] = info.Status
	}
	if len(updates) == 0 {
		return order, false, nil
	}
	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record tracking")
	}
	updated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return updated, true, nil
}
