package entity

import "time"

const MaxMessageLength = 5000

type Participant struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
	Email          string `json:"-"`
}

type LastMessage struct {
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID           string        `json:"id"`
	ItemID       *string       `json:"item,omitempty"`
	Participants []Participant `json:"participants"`
	LastMessage  *LastMessage  `json:"last_message"`
	UnreadCount  int64         `json:"unread_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Others returns every participant except userID.
func (c *Conversation) Others(userID string) []Participant {
	out := make([]Participant, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.ID != userID {
			out = append(out, p)
		}
	}
	return out
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation"`
	Sender         Participant `json:"sender"`
	Content        string      `json:"content"`
	IsRead         bool        `json:"is_read"`
	CreatedAt      time.Time   `json:"created_at"`
}
