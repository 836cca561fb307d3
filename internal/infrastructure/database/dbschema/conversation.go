package dbschema

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/workhive/workhive-server/internal/domain/chat"
	"github.com/workhive/workhive-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Conversation{})
	database.RegisterSchemaForAutoMigrate(Message{})
}

// Conversation represents the database schema for conversations
type Conversation struct {
	BaseModel
	PublicID        string              `gorm:"type:varchar(140);uniqueIndex;not null"`
	ParticipantLow  string              `gorm:"type:varchar(64);index:idx_conversation_participant_low;not null"`
	ParticipantHigh string              `gorm:"type:varchar(64);index:idx_conversation_participant_high;not null"`
	ParticipantInfo JSONParticipantInfo `gorm:"type:jsonb"`
	LastMessage     JSONLastMessage     `gorm:"type:jsonb"`
	LastUpdatedAt   time.Time           `gorm:"index:idx_conversation_last_updated_at;not null"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// JSONParticipantInfo is a custom type for map[string]chat.ParticipantInfo stored as JSON
type JSONParticipantInfo map[string]chat.ParticipantInfo

func (j JSONParticipantInfo) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONParticipantInfo) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONLastMessage is a custom type for chat.LastMessage stored as JSON. The
// zero value maps to a NULL column, matching a conversation without messages.
type JSONLastMessage chat.LastMessage

func (j JSONLastMessage) Value() (driver.Value, error) {
	if j == (JSONLastMessage{}) {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONLastMessage) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// NewSchemaConversation creates a database schema from domain conversation
func NewSchemaConversation(c *chat.Conversation) *Conversation {
	sc := &Conversation{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
		},
		PublicID:        c.PublicID,
		ParticipantLow:  c.ParticipantLow,
		ParticipantHigh: c.ParticipantHigh,
		ParticipantInfo: JSONParticipantInfo(c.ParticipantInfo),
		LastUpdatedAt:   c.LastUpdatedAt,
	}
	if c.LastMessage != nil {
		sc.LastMessage = JSONLastMessage(*c.LastMessage)
	}
	return sc
}

// EtoD converts database schema to domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *chat.Conversation {
	conv := &chat.Conversation{
		ID:              c.ID,
		PublicID:        c.PublicID,
		ParticipantLow:  c.ParticipantLow,
		ParticipantHigh: c.ParticipantHigh,
		ParticipantInfo: map[string]chat.ParticipantInfo(c.ParticipantInfo),
		LastUpdatedAt:   c.LastUpdatedAt,
		CreatedAt:       c.CreatedAt,
	}
	if conv.ParticipantInfo == nil {
		conv.ParticipantInfo = make(map[string]chat.ParticipantInfo)
	}
	if c.LastMessage != (JSONLastMessage{}) {
		last := chat.LastMessage(c.LastMessage)
		conv.LastMessage = &last
	}
	return conv
}
