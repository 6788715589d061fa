package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/pkg/logger"
)

const (
	notificationRetentionDays = 30
	notificationCleanupBatch  = 500
)

// txRunner is satisfied by *db.Client.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    notificationsCleanupRepo
	RetentionDays int
	BatchSize     int
}

type notificationsCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

// NewNotificationCleanupJob prunes in-app notifications older than the
// retention window, one bounded batch per transaction.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("notification cleanup: logger is required")
	case params.DB == nil:
		return nil, errors.New("notification cleanup: db is required")
	case params.Repository == nil:
		return nil, errors.New("notification cleanup: repository is required")
	}
	job := &notificationCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: time.Duration(params.RetentionDays) * 24 * time.Hour,
		batch:     params.BatchSize,
		now:       time.Now,
	}
	if params.RetentionDays <= 0 {
		job.retention = notificationRetentionDays * 24 * time.Hour
	}
	if job.batch <= 0 {
		job.batch = notificationCleanupBatch
	}
	return job, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      notificationsCleanupRepo
	retention time.Duration
	batch     int
	now       func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var total int64
	for {
		var rows int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			rows, err = j.repo.DeleteOlderThan(ctx, tx, cutoff, j.batch)
			return err
		})
		if err != nil {
			return fmt.Errorf("prune notifications before %s: %w", cutoff.Format(time.RFC3339), err)
		}
		total += rows
		if rows < int64(j.batch) || ctx.Err() != nil {
			break
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": total,
	}), "notifications.pruned")
	return ctx.Err()
}
