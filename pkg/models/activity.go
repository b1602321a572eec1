package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EcoPointsHistory struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Action      string    `gorm:"type:varchar(30);not null" json:"action"`
	Points      int       `gorm:"not null" json:"points"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	Reference   string    `gorm:"type:varchar(100);not null;default:''" json:"reference,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (EcoPointsHistory) TableName() string {
	return "eco_points_history"
}

func (h *EcoPointsHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

type Notification struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	RecipientID string    `gorm:"type:uuid;not null;index:idx_notifications_recipient" json:"recipient_id"`
	SenderID    *string   `gorm:"type:uuid" json:"sender_id,omitempty"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"`
	Message     string    `gorm:"type:varchar(255);not null" json:"message"`
	Read        bool      `gorm:"column:read;not null;default:false;index:idx_notifications_recipient" json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

type Conversation struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	ItemID    *string   `gorm:"type:uuid;index" json:"item_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Participants []User    `gorm:"many2many:conversation_participants;joinForeignKey:ConversationID;joinReferences:UserID" json:"-"`
	Messages     []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

type Message struct {
	ID             string    `gorm:"type:uuid;primary_key" json:"id"`
	ConversationID string    `gorm:"type:uuid;not null;index:idx_messages_conversation_created" json:"conversation_id"`
	SenderID       string    `gorm:"type:uuid;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created" json:"created_at"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
