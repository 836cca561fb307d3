package dbschema

import (
	"github.com/workhive/workhive-server/internal/domain/chat"
)

// Message represents the database schema for messages. PublicID is unique
// within its conversation; CreatedAt carries the server-assigned send time
// and, with the serial primary key as tiebreaker, defines the message order.
type Message struct {
	BaseModel
	ConversationID uint   `gorm:"uniqueIndex:idx_message_conversation_public_id;index:idx_message_conversation_created_at;not null"`
	PublicID       string `gorm:"type:varchar(50);uniqueIndex:idx_message_conversation_public_id;not null"`
	SenderID       string `gorm:"type:varchar(64);not null"`
	ReceiverID     string `gorm:"type:varchar(64);not null"`
	Text           string `gorm:"type:text;not null"`
	Deleted        bool   `gorm:"not null;default:false"`
}

// NewSchemaMessage creates a database schema from domain message
func NewSchemaMessage(m *chat.Message) *Message {
	return &Message{
		BaseModel: BaseModel{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
		},
		ConversationID: m.ConversationID,
		PublicID:       m.PublicID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Text:           m.Text,
		Deleted:        m.Deleted,
	}
}

// EtoD converts database schema to domain message (Entity to Domain)
func (m *Message) EtoD() *chat.Message {
	return &chat.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		PublicID:       m.PublicID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Text:           m.Text,
		Deleted:        m.Deleted,
		CreatedAt:      m.CreatedAt,
	}
}
