package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/pagination"
)

// Repository persists in-app notifications. All reads and writes are scoped
// to a single user except the retention sweep.
type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, query pageQuery) (page, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

type pageQuery struct {
	UserID     uuid.UUID
	Limit      int
	After      *pagination.Cursor
	UnreadOnly bool
}

type page struct {
	Rows []models.Notification
	Next *pagination.Cursor
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) owned(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
}

func (r *gormRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// List returns newest first and fetches one extra row to decide whether a
// next cursor exists.
func (r *gormRepository) List(ctx context.Context, q pageQuery) (page, error) {
	size := pagination.NormalizeLimit(q.Limit)
	stmt := r.owned(ctx, q.UserID)
	if q.UnreadOnly {
		stmt = stmt.Where("read_at IS NULL")
	}
	if c := q.After; c != nil {
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", c.CreatedAt, c.CreatedAt, c.ID)
	}

	var rows []models.Notification
	err := stmt.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(q.Limit)).Find(&rows).Error
	if err != nil {
		return page{}, err
	}
	if len(rows) <= size {
		return page{Rows: rows}, nil
	}
	rows = rows[:size]
	tail := rows[size-1]
	return page{Rows: rows, Next: &pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ID}}, nil
}

func (r *gormRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.owned(ctx, userID).Where("read_at IS NULL").Count(&n).Error
	return n, err
}

// MarkRead reports whether the notification exists for the user. Marking an
// already read notification keeps its original read_at.
func (r *gormRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error) {
	var row models.Notification
	err := r.owned(ctx, userID).Select("id", "read_at").Where("id = ?", notificationID).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	case err != nil:
		return false, err
	case row.ReadAt != nil:
		return true, nil
	}
	err = r.owned(ctx, userID).Where("id = ? AND read_at IS NULL", notificationID).UpdateColumn("read_at", at).Error
	return err == nil, err
}

func (r *gormRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.owned(ctx, userID).Where("read_at IS NULL").UpdateColumn("read_at", at)
	return res.RowsAffected, res.Error
}

// DeleteOlderThan removes up to limit notifications created before cutoff,
// oldest first. A non-positive limit removes them all.
func (r *gormRepository) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	conn = conn.WithContext(ctx)

	stmt := conn.Where("created_at < ?", cutoff)
	if limit > 0 {
		oldest := conn.Model(&models.Notification{}).Select("id").
			Where("created_at < ?", cutoff).Order("created_at ASC").Limit(limit)
		stmt = conn.Where("id IN (?)", oldest)
	}
	res := stmt.Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
