package chat

import (
	"context"
	"time"

	"github.com/workhive/workhive-server/internal/domain/query"
)

// Tombstone replaces the text of a soft-deleted message. The original text is
// not retained.
const Tombstone = "This message was deleted"

// Message is a single entry in a conversation. CreatedAt is assigned by the
// database on insert and defines the total order within the conversation
// (ties broken by insertion order via the internal id). A message is mutated
// at most once, by soft deletion, and is never removed or reordered.
type Message struct {
	ID             uint      `json:"-"`
	ConversationID uint      `json:"-"`
	PublicID       string    `json:"id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Text           string    `json:"text"`
	Deleted        bool      `json:"deleted"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessage creates a message ready for insertion. The caller has already
// validated the participants and the text.
func NewMessage(publicID string, conversationID uint, senderID, receiverID, text string) *Message {
	return &Message{
		PublicID:       publicID,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
		Deleted:        false,
	}
}

// MessageFilter narrows message queries.
type MessageFilter struct {
	ID             *uint
	PublicID       *string
	ConversationID *uint
}

// MessageRepository is the persistence contract for messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	FindByPublicID(ctx context.Context, conversationID uint, publicID string) (*Message, error)
	// FindByConversationID returns messages ordered by creation time
	// ascending, insertion order breaking ties.
	FindByConversationID(ctx context.Context, conversationID uint, pagination *query.Pagination) ([]*Message, error)
	Count(ctx context.Context, filter MessageFilter) (int64, error)
	// MarkDeleted flips the deleted flag and replaces the text with the
	// tombstone. Returns a not-found error when the message does not exist.
	MarkDeleted(ctx context.Context, conversationID uint, id uint) error
}
