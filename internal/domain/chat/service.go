package chat

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/workhive/workhive-server/internal/domain/query"
	"github.com/workhive/workhive-server/internal/infrastructure/observability"
	"github.com/workhive/workhive-server/internal/utils/idgen"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

const messageIDPrefix = "msg"

// Transactor runs fn atomically. Repository calls made with the ctx passed to
// fn join the same transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ChatService is the messaging facade: it owns validation, conversation
// identity, atomic message appends and change notification. Handlers call it
// and never touch the repositories directly.
type ChatService struct {
	conversations ConversationRepository
	messages      MessageRepository
	validator     *ChatValidator
	transactor    Transactor
	broker        *Broker
	publisher     ChangePublisher
	logger        zerolog.Logger
}

// NewChatService creates the facade. publisher may be nil when the service
// runs as a single instance.
func NewChatService(
	conversations ConversationRepository,
	messages MessageRepository,
	transactor Transactor,
	broker *Broker,
	publisher ChangePublisher,
	logger zerolog.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		validator:     NewChatValidator(),
		transactor:    transactor,
		broker:        broker,
		publisher:     publisher,
		logger:        logger,
	}
}

// StartOrGetConversation returns the conversation between the two users,
// creating it when it does not exist yet, and reports whether this call
// created it. The cached participant metadata is refreshed on every call, so
// repeated calls converge on the latest profile data. Safe under concurrent
// calls for the same pair: the derived id is unique, a lost creation race
// falls back to the winner's row.
func (s *ChatService) StartOrGetConversation(ctx context.Context, userA, userB string, infoA, infoB ParticipantInfo) (*Conversation, bool, error) {
	if err := s.validator.ValidatePair(userA, userB); err != nil {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid participant pair", err, "7f3a1c2e-9b4d-4e5f-8a6b-1c2d3e4f5a6b")
	}
	if err := s.validator.ValidateParticipantInfo(infoA); err != nil {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid participant info", err, "8a4b2d3f-0c5e-4f6a-9b7c-2d3e4f5a6b7c")
	}
	if err := s.validator.ValidateParticipantInfo(infoB); err != nil {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid participant info", err, "9b5c3e4a-1d6f-4a7b-0c8d-3e4f5a6b7c8d")
	}

	publicID := DeriveConversationID(userA, userB)

	conv, err := s.conversations.FindByPublicID(ctx, publicID)
	if err == nil {
		conv.ParticipantInfo[userA] = infoA
		conv.ParticipantInfo[userB] = infoB
		if err := s.conversations.UpdateParticipantInfo(ctx, conv.ID, conv.ParticipantInfo); err != nil {
			return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to refresh participant info")
		}
		return conv, false, nil
	}
	if !platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
		return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}

	conv = NewConversation(userA, userB, infoA, infoB)
	if err := s.conversations.Create(ctx, conv); err != nil {
		// Lost a creation race for the same pair: the other writer's row is
		// the conversation, use it.
		if platformerrors.IsType(err, platformerrors.ErrorTypeConflict) {
			winner, ferr := s.conversations.FindByPublicID(ctx, publicID)
			return winner, false, ferr
		}
		return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	return conv, true, nil
}

// GetConversation retrieves a conversation the requester participates in.
// Non-participants get not-found, never a hint that the conversation exists.
func (s *ChatService) GetConversation(ctx context.Context, requesterID, conversationID string) (*Conversation, error) {
	conv, err := s.conversations.FindByPublicID(ctx, conversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	if !conv.HasParticipant(requesterID) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "0c6d4f5b-2e7a-4b8c-1d9e-4f5a6b7c8d9e")
	}
	return conv, nil
}

// ListConversations returns the user's conversations ordered by most recent
// activity first, with the total count for pagination.
func (s *ChatService) ListConversations(ctx context.Context, userID string, pagination *query.Pagination) ([]*Conversation, int64, error) {
	if err := s.validator.ValidateUserID(userID); err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid user id", err, "1d7e5a6c-3f8b-4c9d-2e0f-5a6b7c8d9e0f")
	}

	filter := ConversationFilter{Participant: &userID}
	conversations, err := s.conversations.FindByFilter(ctx, filter, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	total, err := s.conversations.Count(ctx, filter)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count conversations")
	}
	return conversations, total, nil
}

// SendMessage appends a message to the conversation. The message insert and
// the conversation's last-message preview are committed in one transaction,
// so readers never observe one without the other. Subscribers on both sides
// are notified after commit.
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID, text string) (*Message, error) {
	ctx, span := observability.StartSpan(ctx, "chat", "chat.send_message")
	defer span.End()
	observability.AddSpanAttributes(ctx, attribute.String("conversation.id", conversationID))

	trimmed, err := s.validator.ValidateText(text)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid message text", err, "2e8f6b7d-4a9c-4d0e-3f1a-6b7c8d9e0f1a")
	}

	conv, err := s.GetConversation(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	publicID, err := idgen.GenerateSecureID(messageIDPrefix, 16)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate message id", err, "3f9a7c8e-5b0d-4e1f-4a2b-7c8d9e0f1a2b")
	}

	msg := NewMessage(publicID, conv.ID, senderID, conv.PeerOf(senderID), trimmed)
	err = s.transactor.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.messages.Create(txCtx, msg); err != nil {
			return err
		}
		return s.conversations.SetLastMessage(txCtx, conv.ID, LastMessage{
			Text:     msg.Text,
			SenderID: msg.SenderID,
			SentAt:   msg.CreatedAt,
		})
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to send message")
	}

	s.notifyChange(ctx, conv)
	return msg, nil
}

// ListMessages returns the conversation's messages in send order, oldest
// first, with the total count. Soft-deleted messages appear in place with the
// tombstone text.
func (s *ChatService) ListMessages(ctx context.Context, requesterID, conversationID string, pagination *query.Pagination) ([]*Message, int64, error) {
	conv, err := s.GetConversation(ctx, requesterID, conversationID)
	if err != nil {
		return nil, 0, err
	}

	messages, err := s.messages.FindByConversationID(ctx, conv.ID, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list messages")
	}
	total, err := s.messages.Count(ctx, MessageFilter{ConversationID: &conv.ID})
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count messages")
	}
	return messages, total, nil
}

// DeleteMessage soft deletes a message: the text is replaced with the
// tombstone and the deleted flag is set, the slot stays in the conversation.
// Only the sender may delete. Deleting an already deleted message is a no-op.
// The conversation's last-message preview is intentionally left untouched.
func (s *ChatService) DeleteMessage(ctx context.Context, requesterID, conversationID, messageID string) error {
	ctx, span := observability.StartSpan(ctx, "chat", "chat.delete_message")
	defer span.End()
	observability.AddSpanAttributes(ctx, attribute.String("conversation.id", conversationID))

	conv, err := s.GetConversation(ctx, requesterID, conversationID)
	if err != nil {
		return err
	}

	msg, err := s.messages.FindByPublicID(ctx, conv.ID, messageID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "message not found")
	}
	if msg.SenderID != requesterID {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "only the sender can delete a message", nil, "4a0b8d9f-6c1e-4f2a-5b3c-8d9e0f1a2b3c")
	}
	if msg.Deleted {
		return nil
	}

	if err := s.messages.MarkDeleted(ctx, conv.ID, msg.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete message")
	}

	s.notifyChange(ctx, conv)
	return nil
}

// SubscribeConversations streams the requester's conversation list. The
// initial state is delivered immediately.
func (s *ChatService) SubscribeConversations(ctx context.Context, userID string, fn ConversationListHandler) (CancelFunc, error) {
	if err := s.validator.ValidateUserID(userID); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid user id", err, "5b1c9e0a-7d2f-4a3b-6c4d-9e0f1a2b3c4d")
	}
	return s.broker.SubscribeConversations(ctx, userID, fn), nil
}

// SubscribeMessages streams the conversation's message list to a participant.
func (s *ChatService) SubscribeMessages(ctx context.Context, requesterID, conversationID string, fn MessageListHandler) (CancelFunc, error) {
	if _, err := s.GetConversation(ctx, requesterID, conversationID); err != nil {
		return nil, err
	}
	return s.broker.SubscribeMessages(ctx, conversationID, fn), nil
}

// HandleRemoteChange wakes local subscriptions for an event committed by
// another instance. Wired to the pub/sub bridge.
func (s *ChatService) HandleRemoteChange(event ChangeEvent) {
	s.broker.Notify(event)
}

func (s *ChatService) notifyChange(ctx context.Context, conv *Conversation) {
	event := ChangeEvent{
		ConversationID: conv.PublicID,
		Participants:   conv.Participants(),
	}
	s.broker.Notify(event)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("conversation_id", conv.PublicID).Msg("failed to publish change event")
		}
	}
}
