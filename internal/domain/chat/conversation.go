package chat

import (
	"context"
	"time"

	"github.com/workhive/workhive-server/internal/domain/query"
)

// ParticipantInfo is display metadata cached on the conversation so list
// views render without a user lookup. It is refreshed opportunistically on
// every start-or-get call.
type ParticipantInfo struct {
	DisplayName  string `json:"display_name"`
	ProfileImage string `json:"profile_image"`
}

// LastMessage is the denormalized preview of the most recently sent message.
// It is written in the same transaction as the message itself and is NOT
// recomputed when that message is later soft deleted.
type LastMessage struct {
	Text     string    `json:"text"`
	SenderID string    `json:"sender_id"`
	SentAt   time.Time `json:"sent_at"`
}

// Conversation is a two-party messaging thread. PublicID is derived from the
// participant pair (see DeriveConversationID); ParticipantLow/High hold the
// pair in canonical sorted order.
type Conversation struct {
	ID              uint                       `json:"-"`
	PublicID        string                     `json:"id"`
	ParticipantLow  string                     `json:"-"`
	ParticipantHigh string                     `json:"-"`
	ParticipantInfo map[string]ParticipantInfo `json:"participant_info"`
	LastMessage     *LastMessage               `json:"last_message,omitempty"`
	LastUpdatedAt   time.Time                  `json:"last_updated_at"`
	CreatedAt       time.Time                  `json:"created_at"`
}

// Participants returns both participant ids in canonical order.
func (c *Conversation) Participants() []string {
	return []string{c.ParticipantLow, c.ParticipantHigh}
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.ParticipantLow || userID == c.ParticipantHigh
}

// PeerOf returns the other participant of the pair.
func (c *Conversation) PeerOf(userID string) string {
	if userID == c.ParticipantLow {
		return c.ParticipantHigh
	}
	return c.ParticipantLow
}

// NewConversation creates a conversation between two users with their cached
// display metadata. The caller has already validated the pair.
func NewConversation(userA, userB string, infoA, infoB ParticipantInfo) *Conversation {
	low, high := CanonicalPair(userA, userB)
	now := time.Now()
	return &Conversation{
		PublicID:        DeriveConversationID(userA, userB),
		ParticipantLow:  low,
		ParticipantHigh: high,
		ParticipantInfo: map[string]ParticipantInfo{
			userA: infoA,
			userB: infoB,
		},
		LastMessage:   nil,
		LastUpdatedAt: now,
		CreatedAt:     now,
	}
}

// ConversationFilter narrows conversation queries.
type ConversationFilter struct {
	ID          *uint
	PublicID    *string
	Participant *string
}

// ConversationRepository is the persistence contract for conversations.
// Mutating operations participate in a surrounding transaction when the
// context carries one.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	FindByFilter(ctx context.Context, filter ConversationFilter, pagination *query.Pagination) ([]*Conversation, error)
	Count(ctx context.Context, filter ConversationFilter) (int64, error)
	// UpdateParticipantInfo refreshes the cached display metadata without
	// touching LastMessage or LastUpdatedAt.
	UpdateParticipantInfo(ctx context.Context, id uint, info map[string]ParticipantInfo) error
	// SetLastMessage writes the denormalized preview and bumps LastUpdatedAt.
	SetLastMessage(ctx context.Context, id uint, last LastMessage) error
}
