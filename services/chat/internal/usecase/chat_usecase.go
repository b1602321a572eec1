package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer"
	"thriftgram/pkg/notify"
	"thriftgram/services/chat/internal/entity"
	"thriftgram/services/chat/internal/repo/persistent"
)

type ChatUseCase interface {
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)
	// StartConversation returns the existing conversation with otherUserID
	// or creates one; created reports which happened.
	StartConversation(ctx context.Context, userID, otherUserID string, itemID *string) (conv *entity.Conversation, created bool, err error)
	Messages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
	SendMessage(ctx context.Context, senderID, conversationID, content string) (*entity.Message, error)
	MarkRead(ctx context.Context, userID, messageID string) error
}

type Deps struct {
	Chats        persistent.ChatRepository
	Notifier     *notify.Notifier
	Mailer       mailer.Sender
	EmailTimeout time.Duration
	Logger       *logger.Logger
}

type chatUseCase struct {
	chats        persistent.ChatRepository
	notifier     *notify.Notifier
	mailer       mailer.Sender
	emailTimeout time.Duration
	logger       *logger.Logger
}

func NewChatUseCase(deps Deps) ChatUseCase {
	if deps.EmailTimeout <= 0 {
		deps.EmailTimeout = 10 * time.Second
	}
	return &chatUseCase{
		chats:        deps.Chats,
		notifier:     deps.Notifier,
		mailer:       deps.Mailer,
		emailTimeout: deps.EmailTimeout,
		logger:       deps.Logger,
	}
}

func (uc *chatUseCase) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	return uc.chats.ListConversations(ctx, userID, limit, offset)
}

func (uc *chatUseCase) StartConversation(ctx context.Context, userID, otherUserID string, itemID *string) (*entity.Conversation, bool, error) {
	if otherUserID == "" {
		return nil, false, apperr.Validation("other_user is required")
	}
	if otherUserID == userID {
		return nil, false, apperr.Validation("You cannot start a conversation with yourself")
	}
	if itemID != nil && *itemID == "" {
		itemID = nil
	}

	if _, err := uc.chats.GetUser(ctx, otherUserID); err != nil {
		return nil, false, err
	}

	existing, err := uc.chats.FindConversation(ctx, userID, otherUserID, itemID)
	if err == nil {
		return existing, false, nil
	}
	if !apperr.Is(err, apperr.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conv, err := uc.chats.CreateConversation(ctx, itemID, userID, otherUserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}
	uc.logger.Info("[CHAT] conversation %s started by %s with %s", conv.ID, userID, otherUserID)
	return conv, true, nil
}

func (uc *chatUseCase) Messages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	if _, err := uc.chats.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}
	return uc.chats.ListMessages(ctx, conversationID, limit, offset)
}

func (uc *chatUseCase) SendMessage(ctx context.Context, senderID, conversationID, content string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > entity.MaxMessageLength {
		return nil, apperr.Validation("content must be at most %d characters", entity.MaxMessageLength)
	}

	conv, err := uc.chats.GetConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg, err := uc.chats.CreateMessage(ctx, conv.ID, senderID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	for _, recipient := range conv.Others(senderID) {
		if _, err := uc.notifier.MessageReceived(ctx, senderID, msg.Sender.Username, recipient.ID); err != nil {
			uc.logger.Error("[CHAT] failed to notify %s of message %s: %v", recipient.ID, msg.ID, err)
		}

		email, err := mailer.NewMessage(mailer.Recipient{Username: recipient.Username, Email: recipient.Email}, msg.Sender.Username, msg.Content)
		if err != nil {
			uc.logger.Error("[CHAT] failed to render message email: %v", err)
			continue
		}
		mailer.Deliver(ctx, uc.mailer, email, uc.emailTimeout, uc.logger)
	}

	return msg, nil
}

func (uc *chatUseCase) MarkRead(ctx context.Context, userID, messageID string) error {
	msg, err := uc.chats.GetMessage(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if msg.Sender.ID == userID {
		return apperr.Validation("Cannot mark your own message as read")
	}
	if msg.IsRead {
		return nil
	}
	return uc.chats.MarkRead(ctx, msg.ID)
}
