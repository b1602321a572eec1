package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer/mailertest"
	"thriftgram/pkg/notify"
	"thriftgram/pkg/notify/notifytest"
	"thriftgram/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInbox(t *testing.T) (NotificationUseCase, *notifytest.Repository) {
	t.Helper()
	repo := notifytest.NewRepository()
	notifier := notify.NewNotifier(repo, nil, time.Second, logger.New())
	ctx := context.Background()

	_, err := notifier.ItemLiked(ctx, "user-b", "bob", "user-a", "Denim jacket")
	require.NoError(t, err)
	_, err = notifier.UserFollowed(ctx, "user-c", "carol", "user-a")
	require.NoError(t, err)
	_, err = notifier.MessageReceived(ctx, "user-a", "alice", "user-b")
	require.NoError(t, err)

	return NewNotificationUseCase(repo), repo
}

func TestList_NewestFirstAndUnreadFilter(t *testing.T) {
	uc, _ := seedInbox(t)
	ctx := context.Background()

	items, total, err := uc.List(ctx, "user-a", false, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, notify.TypeFollow, items[0].Type)
	assert.Equal(t, notify.TypeLike, items[1].Type)

	require.NoError(t, uc.MarkRead(ctx, "user-a", items[0].ID))

	unread, total, err := uc.List(ctx, "user-a", true, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, unread, 1)
	assert.Equal(t, notify.TypeLike, unread[0].Type)
}

func TestList_EmptyInboxIsNotNil(t *testing.T) {
	uc := NewNotificationUseCase(notifytest.NewRepository())

	items, total, err := uc.List(context.Background(), "user-z", false, 50, 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Zero(t, total)
}

func TestMarkRead_OtherUsersNotification(t *testing.T) {
	uc, repo := seedInbox(t)
	ctx := context.Background()
	bobs := repo.For("user-b")
	require.Len(t, bobs, 1)

	err := uc.MarkRead(ctx, "user-a", bobs[0].ID)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
	assert.False(t, repo.For("user-b")[0].Read)

	err = uc.MarkRead(ctx, "user-a", "")
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}

func TestMarkAllRead(t *testing.T) {
	uc, _ := seedInbox(t)
	ctx := context.Background()

	count, err := uc.UnreadCount(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	updated, err := uc.MarkAllRead(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	count, err = uc.UnreadCount(ctx, "user-a")
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = uc.UnreadCount(ctx, "user-b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUnreadCount_RequiresUser(t *testing.T) {
	uc := NewNotificationUseCase(notifytest.NewRepository())
	_, err := uc.UnreadCount(context.Background(), "")
	assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))
}

func TestEmailDispatcher_Delivers(t *testing.T) {
	sender := &mailertest.Sender{}
	d := NewEmailDispatcher(sender, time.Second, logger.New())

	err := d.Handle(context.Background(), []byte(`{"to":["bob@example.com"],"subject":"New message","text":"hi"}`))
	require.NoError(t, err)

	sent := sender.To("bob@example.com")
	require.Len(t, sent, 1)
	assert.Equal(t, "New message", sent[0].Subject)
}

func TestEmailDispatcher_DropsMalformedTasks(t *testing.T) {
	sender := &mailertest.Sender{}
	d := NewEmailDispatcher(sender, time.Second, logger.New())

	for _, body := range []string{`not json`, `{"subject":"no recipients"}`, `{"to":["a@example.com"]}`} {
		err := d.Handle(context.Background(), []byte(body))
		require.Error(t, err, body)
		assert.True(t, queue.IsDrop(err), body)
	}
	assert.Empty(t, sender.Sent())
}

func TestEmailDispatcher_SendFailureIsRetried(t *testing.T) {
	sender := &mailertest.Sender{Err: errors.New("smtp: connection refused")}
	d := NewEmailDispatcher(sender, time.Second, logger.New())

	err := d.Handle(context.Background(), []byte(`{"to":["bob@example.com"],"subject":"Hello","text":"hi"}`))
	require.Error(t, err)
	assert.False(t, queue.IsDrop(err))
}
