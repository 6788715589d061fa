package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/pagination"
)

// Service is the read side of in-app notifications exposed over HTTP.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult is one page of notifications plus the caller's total unread
// count, independent of the page filter.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
	Unread int64                 `json:"unread"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func requireID(id uuid.UUID, name string) error {
	if id == uuid.Nil {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s id required", name)
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if err := requireID(params.UserID, "user"); err != nil {
		return nil, err
	}

	q := pageQuery{UserID: params.UserID, Limit: params.Limit, UnreadOnly: params.UnreadOnly}
	if params.Cursor != "" {
		after, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		q.After = after
	}

	pg, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	out := &ListResult{Items: pg.Rows, Unread: unread}
	if out.Items == nil {
		out.Items = []models.Notification{}
	}
	if pg.Next != nil {
		out.Cursor = pagination.EncodeCursor(*pg.Next)
	}
	return out, nil
}

// MarkRead is idempotent; a notification owned by someone else reads as missing.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := requireID(userID, "user"); err != nil {
		return err
	}
	if err := requireID(notificationID, "notification"); err != nil {
		return err
	}

	found, err := s.repo.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := requireID(userID, "user"); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return n, nil
}
