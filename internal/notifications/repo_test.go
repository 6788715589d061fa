package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dairymart/dairymart-backend/pkg/db/dbtest"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
)

func seedNotification(t *testing.T, repo Repository, userID uuid.UUID, createdAt time.Time) models.Notification {
	t.Helper()
	n := models.Notification{
		UserID:    userID,
		Type:      enums.NotificationTypeSystem,
		Title:     "hello",
		Message:   "hello",
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), &n))
	return n
}

func TestRepositoryListPagesByCreatedAt(t *testing.T) {
	conn := dbtest.Open(t, "notifications_list")
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	oldest := seedNotification(t, repo, userID, base)
	middle := seedNotification(t, repo, userID, base.Add(time.Minute))
	newest := seedNotification(t, repo, userID, base.Add(2*time.Minute))
	seedNotification(t, repo, uuid.New(), base.Add(3*time.Minute))

	page, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newest.ID, page.Items[0].ID)
	assert.Equal(t, middle.ID, page.Items[1].ID)
	require.NotEmpty(t, page.Cursor)

	next, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, oldest.ID, next.Items[0].ID)
	assert.Empty(t, next.Cursor)
}

func TestRepositoryMarkReadScopedToUser(t *testing.T) {
	conn := dbtest.Open(t, "notifications_mark")
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)

	userID := uuid.New()
	n := seedNotification(t, repo, userID, time.Now().UTC())
	seedNotification(t, repo, userID, time.Now().UTC())

	require.Error(t, svc.MarkRead(context.Background(), uuid.New(), n.ID))
	require.NoError(t, svc.MarkRead(context.Background(), userID, n.ID))
	require.NoError(t, svc.MarkRead(context.Background(), userID, n.ID))

	unread, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Items, 1)
	assert.Equal(t, int64(1), unread.Unread)

	var stored models.Notification
	require.NoError(t, conn.First(&stored, "id = ?", n.ID).Error)
	require.NotNil(t, stored.ReadAt)

	count, err := svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryDeleteOlderThan(t *testing.T) {
	conn := dbtest.Open(t, "notifications_cleanup")
	repo := NewRepository(conn)

	userID := uuid.New()
	now := time.Now().UTC()
	seedNotification(t, repo, userID, now.Add(-40*24*time.Hour))
	keep := seedNotification(t, repo, userID, now)

	deleted, err := repo.DeleteOlderThan(context.Background(), nil, now.Add(-30*24*time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var rows []models.Notification
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, keep.ID, rows[0].ID)
}

func TestRepositoryDeleteOlderThanHonoursBatchLimit(t *testing.T) {
	conn := dbtest.Open(t, "notifications_cleanup_batch")
	repo := NewRepository(conn)

	userID := uuid.New()
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		seedNotification(t, repo, userID, now.Add(-time.Duration(40+i)*24*time.Hour))
	}
	cutoff := now.Add(-30 * 24 * time.Hour)

	deleted, err := repo.DeleteOlderThan(context.Background(), nil, cutoff, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = repo.DeleteOlderThan(context.Background(), nil, cutoff, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
