// Package notify persists in-app notifications and pushes them to the
// recipient's live channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"thriftgram/pkg/logger"
)

type Type string

const (
	TypeLike    Type = "like"
	TypeMessage Type = "message"
	TypeOrder   Type = "order"
	TypeFollow  Type = "follow"
)

type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	SenderID    string    `json:"sender_id,omitempty"`
	Type        Type      `json:"type"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Payload is the frame delivered on a user's push channel.
type Payload struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*Notification, int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

func Channel(userID string) string {
	return fmt.Sprintf("notifications:%s", userID)
}

type Notifier struct {
	repo        Repository
	publisher   Publisher
	pushTimeout time.Duration
	logger      *logger.Logger
}

func NewNotifier(repo Repository, publisher Publisher, pushTimeout time.Duration, logger *logger.Logger) *Notifier {
	if pushTimeout <= 0 {
		pushTimeout = 2 * time.Second
	}
	return &Notifier{
		repo:        repo,
		publisher:   publisher,
		pushTimeout: pushTimeout,
		logger:      logger,
	}
}

// Notify stores the notification and then pushes it. Push failures are
// logged and never returned.
func (n *Notifier) Notify(ctx context.Context, recipientID, senderID string, t Type, message string) (*Notification, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("notify %s: empty recipient", t)
	}

	notification := &Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        t,
		Message:     message,
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("store %s notification for %s: %w", t, recipientID, err)
	}

	n.push(ctx, notification)
	return notification, nil
}

func (n *Notifier) push(ctx context.Context, notification *Notification) {
	if n.publisher == nil {
		return
	}

	body, err := json.Marshal(Payload{
		ID:        notification.ID,
		Message:   notification.Message,
		Type:      notification.Type,
		CreatedAt: notification.CreatedAt,
	})
	if err != nil {
		n.logger.Error("[NOTIFY] failed to marshal payload for %s: %v", notification.ID, err)
		return
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.pushTimeout)
	defer cancel()

	channel := Channel(notification.RecipientID)
	if err := n.publisher.Publish(pushCtx, channel, body); err != nil {
		n.logger.Warn("[NOTIFY] push to %s dropped: %v", channel, err)
		return
	}
	n.logger.Debug("[NOTIFY] pushed %s notification %s to %s", notification.Type, notification.ID, channel)
}

// ItemLiked tells the seller about a like. Sellers liking their own items
// are not notified.
func (n *Notifier) ItemLiked(ctx context.Context, likerID, likerName, sellerID, itemTitle string) (*Notification, error) {
	if likerID == sellerID {
		return nil, nil
	}
	return n.Notify(ctx, sellerID, likerID, TypeLike, fmt.Sprintf("%s liked your item: %s", likerName, itemTitle))
}

func (n *Notifier) MessageReceived(ctx context.Context, senderID, senderName, recipientID string) (*Notification, error) {
	return n.Notify(ctx, recipientID, senderID, TypeMessage, fmt.Sprintf("New message from %s", senderName))
}

func (n *Notifier) OrderPlaced(ctx context.Context, buyerID, buyerName, sellerID, itemTitle string) (*Notification, error) {
	return n.Notify(ctx, sellerID, buyerID, TypeOrder, fmt.Sprintf("%s bought your item: %s", buyerName, itemTitle))
}

func (n *Notifier) UserFollowed(ctx context.Context, followerID, followerName, followedID string) (*Notification, error) {
	return n.Notify(ctx, followedID, followerID, TypeFollow, fmt.Sprintf("%s started following you", followerName))
}
