package cron

import (
	"context"
	"fmt"

	"github.com/dairymart/dairymart-backend/internal/shipping"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

const defaultShipmentSyncBatch = 200

type shipmentSyncer interface {
	SyncShipments(ctx context.Context, limit int) (shipping.SyncReport, error)
}

// ShipmentSyncJobParams configure the shipment tracking job.
type ShipmentSyncJobParams struct {
	Logger    *logger.Logger
	Shipping  shipmentSyncer
	BatchSize int
}

// NewShipmentSyncJob polls the carrier for every in-flight shipment.
func NewShipmentSyncJob(params ShipmentSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultShipmentSyncBatch
	}
	return &shipmentSyncJob{
		logg:     params.Logger,
		shipping: params.Shipping,
		batch:    batch,
	}, nil
}

type shipmentSyncJob struct {
	logg     *logger.Logger
	shipping shipmentSyncer
	batch    int
}

func (j *shipmentSyncJob) Name() string { return "shipment-tracking-sync" }

func (j *shipmentSyncJob) Run(ctx context.Context) error {
	report, err := j.shipping.SyncShipments(ctx, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked": report.Checked,
		"updated": report.Updated,
		"failed":  report.Failed,
	})
	if err != nil {
		return fmt.Errorf("sync shipments: %w", err)
	}
	j.logg.Info(logCtx, "shipment tracking sync complete")
	return nil
}
