package persistent

import (
	"context"
	"errors"
	"time"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/models"
	"thriftgram/services/chat/internal/entity"

	"gorm.io/gorm"
)

const participantsTable = "conversation_participants"

type ChatRepository interface {
	GetUser(ctx context.Context, id string) (*entity.Participant, error)
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)
	// FindConversation returns a conversation both users take part in,
	// restricted to itemID when it is set.
	FindConversation(ctx context.Context, userID, otherID string, itemID *string) (*entity.Conversation, error)
	CreateConversation(ctx context.Context, itemID *string, participantIDs ...string) (*entity.Conversation, error)
	GetConversation(ctx context.Context, id, userID string) (*entity.Conversation, error)
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
	CreateMessage(ctx context.Context, conversationID, senderID, content string) (*entity.Message, error)
	GetMessage(ctx context.Context, id, userID string) (*entity.Message, error)
	MarkRead(ctx context.Context, id string) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) GetUser(ctx context.Context, id string) (*entity.Participant, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("id", "username", "email", "profile_picture").Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	p := ToParticipant(&user)
	return &p, nil
}

func (r *chatRepository) participantOf(db *gorm.DB, userID string) *gorm.DB {
	return db.Where("conversations.id IN (?)",
		r.db.Table(participantsTable).Select("conversation_id").Where("user_id = ?", userID))
}

func (r *chatRepository) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.participantOf(r.db.WithContext(ctx).Model(&models.Conversation{}), userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Conversation
	if err := query.Session(&gorm.Session{}).
		Preload("Participants").
		Order("conversations.updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return []*entity.Conversation{}, total, nil
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	var last []models.Message
	if err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (conversation_id) * FROM messages
			WHERE conversation_id IN ?
			ORDER BY conversation_id, created_at DESC`, ids).
		Scan(&last).Error; err != nil {
		return nil, 0, err
	}

	var unread []struct {
		ConversationID string
		Count          int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ? AND is_read = ? AND sender_id <> ?", ids, false, userID).
		Group("conversation_id").
		Scan(&unread).Error; err != nil {
		return nil, 0, err
	}

	unreadBy := make(map[string]int64, len(unread))
	for _, u := range unread {
		unreadBy[u.ConversationID] = u.Count
	}
	lastBy := make(map[string]*models.Message, len(last))
	for i := range last {
		lastBy[last[i].ConversationID] = &last[i]
	}

	out := make([]*entity.Conversation, len(rows))
	for i := range rows {
		conv := ToConversationEntity(&rows[i])
		conv.UnreadCount = unreadBy[conv.ID]
		if m, ok := lastBy[conv.ID]; ok {
			conv.LastMessage = &entity.LastMessage{Content: m.Content, CreatedAt: m.CreatedAt}
			for _, p := range conv.Participants {
				if p.ID == m.SenderID {
					conv.LastMessage.Sender = p.Username
				}
			}
		}
		out[i] = conv
	}
	return out, total, nil
}

func (r *chatRepository) FindConversation(ctx context.Context, userID, otherID string, itemID *string) (*entity.Conversation, error) {
	query := r.participantOf(r.db.WithContext(ctx).Model(&models.Conversation{}), userID)
	query = r.participantOf(query, otherID)
	if itemID != nil {
		query = query.Where("conversations.item_id = ?", *itemID)
	}

	var row models.Conversation
	err := query.Preload("Participants").Order("conversations.created_at ASC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Conversation not found")
	}
	if err != nil {
		return nil, err
	}
	return ToConversationEntity(&row), nil
}

func (r *chatRepository) CreateConversation(ctx context.Context, itemID *string, participantIDs ...string) (*entity.Conversation, error) {
	row := &models.Conversation{ItemID: itemID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants", "Messages").Create(row).Error; err != nil {
			return err
		}
		links := make([]map[string]interface{}, len(participantIDs))
		for i, id := range participantIDs {
			links[i] = map[string]interface{}{"conversation_id": row.ID, "user_id": id}
		}
		return tx.Table(participantsTable).Create(links).Error
	})
	if err != nil {
		return nil, err
	}

	var created models.Conversation
	if err := r.db.WithContext(ctx).Preload("Participants").Where("id = ?", row.ID).Take(&created).Error; err != nil {
		return nil, err
	}
	return ToConversationEntity(&created), nil
}

func (r *chatRepository) GetConversation(ctx context.Context, id, userID string) (*entity.Conversation, error) {
	var row models.Conversation
	err := r.participantOf(r.db.WithContext(ctx).Model(&models.Conversation{}), userID).
		Preload("Participants").
		Where("conversations.id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Conversation not found")
	}
	if err != nil {
		return nil, err
	}
	return ToConversationEntity(&row), nil
}

func (r *chatRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Message
	if err := query.Session(&gorm.Session{}).
		Preload("Sender").
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entity.Message, len(rows))
	for i := range rows {
		out[i] = ToMessageEntity(&rows[i])
	}
	return out, total, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, conversationID, senderID, content string) (*entity.Message, error) {
	row := &models.Message{ConversationID: conversationID, SenderID: senderID, Content: content}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sender").Create(row).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conversationID).
			UpdateColumn("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Preload("Sender").Where("id = ?", row.ID).Take(row).Error; err != nil {
		return nil, err
	}
	return ToMessageEntity(row), nil
}

func (r *chatRepository) GetMessage(ctx context.Context, id, userID string) (*entity.Message, error) {
	var row models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("messages.id = ?", id).
		Where("messages.conversation_id IN (?)",
			r.db.Table(participantsTable).Select("conversation_id").Where("user_id = ?", userID)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Message not found")
	}
	if err != nil {
		return nil, err
	}
	return ToMessageEntity(&row), nil
}

func (r *chatRepository) MarkRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("is_read", true).Error
}
