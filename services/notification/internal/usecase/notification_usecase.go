package usecase

import (
	"context"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/notify"
)

type NotificationUseCase interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*notify.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationUseCase struct {
	notifications notify.Repository
}

func NewNotificationUseCase(notifications notify.Repository) NotificationUseCase {
	return &notificationUseCase{notifications: notifications}
}

func (uc *notificationUseCase) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*notify.Notification, int64, error) {
	if userID == "" {
		return nil, 0, apperr.Unauthorized("Unauthorized")
	}
	items, total, err := uc.notifications.List(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*notify.Notification{}
	}
	return items, total, nil
}

func (uc *notificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperr.Unauthorized("Unauthorized")
	}
	return uc.notifications.UnreadCount(ctx, userID)
}

// MarkRead only touches notifications addressed to userID; anything else is
// reported as not found.
func (uc *notificationUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	if notificationID == "" {
		return apperr.Validation("notification id is required")
	}
	return uc.notifications.MarkRead(ctx, userID, notificationID)
}

func (uc *notificationUseCase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperr.Unauthorized("Unauthorized")
	}
	return uc.notifications.MarkAllRead(ctx, userID)
}
