package persistent

import (
	"thriftgram/pkg/models"
	"thriftgram/services/chat/internal/entity"
)

func ToParticipant(u *models.User) entity.Participant {
	return entity.Participant{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Email:          u.Email,
	}
}

func ToConversationEntity(m *models.Conversation) *entity.Conversation {
	conv := &entity.Conversation{
		ID:           m.ID,
		ItemID:       m.ItemID,
		Participants: make([]entity.Participant, len(m.Participants)),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for i := range m.Participants {
		conv.Participants[i] = ToParticipant(&m.Participants[i])
	}
	return conv
}

func ToMessageEntity(m *models.Message) *entity.Message {
	return &entity.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         ToParticipant(&m.Sender),
		Content:        m.Content,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}
