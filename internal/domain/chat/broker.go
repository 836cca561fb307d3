package chat

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// ConversationListHandler receives the full conversation list of a user,
// sorted by LastUpdatedAt descending, on every relevant change. When the
// backing query fails the handler receives an empty list together with the
// error so the caller can show a load failure instead of silently stale data.
type ConversationListHandler func(conversations []*Conversation, err error)

// MessageListHandler receives the full ordered message list of a
// conversation on every change, with the same error contract as
// ConversationListHandler.
type MessageListHandler func(messages []*Message, err error)

// CancelFunc disposes a subscription. It is idempotent; callers own exactly
// one and must invoke it when no longer interested.
type CancelFunc func()

// ChangeEvent describes a committed mutation on a conversation. It carries
// everything the broker needs to wake the affected subscriptions.
type ChangeEvent struct {
	ConversationID string   `json:"conversation_id"`
	Participants   []string `json:"participants"`
}

// ChangePublisher forwards change events to peers (other instances).
// Implementations must not block on slow consumers.
type ChangePublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

type subscription struct {
	trigger chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSubscription() *subscription {
	return &subscription{
		// Buffer of one coalesces bursts: a pending trigger already implies
		// the next delivery will read the latest state.
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *subscription) wake() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *subscription) close() {
	s.once.Do(func() { close(s.done) })
}

// Broker fans out store changes to live subscriptions. Each subscription
// runs its own delivery goroutine that re-queries the repositories, so a
// slow consumer never blocks the write path.
type Broker struct {
	conversations ConversationRepository
	messages      MessageRepository
	logger        zerolog.Logger

	mu       sync.Mutex
	nextID   uint64
	convSubs map[string]map[uint64]*subscription
	msgSubs  map[string]map[uint64]*subscription
}

// NewBroker creates a broker over the given repositories.
func NewBroker(conversations ConversationRepository, messages MessageRepository, logger zerolog.Logger) *Broker {
	return &Broker{
		conversations: conversations,
		messages:      messages,
		logger:        logger,
		convSubs:      make(map[string]map[uint64]*subscription),
		msgSubs:       make(map[string]map[uint64]*subscription),
	}
}

// SubscribeConversations delivers the user's conversation list immediately
// and again after every change involving that user. The subscription ends
// when the returned CancelFunc is called or ctx is done.
func (b *Broker) SubscribeConversations(ctx context.Context, userID string, fn ConversationListHandler) CancelFunc {
	sub := newSubscription()

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.convSubs[userID] == nil {
		b.convSubs[userID] = make(map[uint64]*subscription)
	}
	b.convSubs[userID][id] = sub
	b.mu.Unlock()

	go func() {
		defer b.removeConvSub(userID, id)
		b.deliverConversations(ctx, userID, fn)
		for {
			select {
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			case <-sub.trigger:
				b.deliverConversations(ctx, userID, fn)
			}
		}
	}()

	return sub.close
}

// SubscribeMessages delivers the conversation's ordered message list
// immediately and again after every change within that conversation.
func (b *Broker) SubscribeMessages(ctx context.Context, conversationID string, fn MessageListHandler) CancelFunc {
	sub := newSubscription()

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.msgSubs[conversationID] == nil {
		b.msgSubs[conversationID] = make(map[uint64]*subscription)
	}
	b.msgSubs[conversationID][id] = sub
	b.mu.Unlock()

	go func() {
		defer b.removeMsgSub(conversationID, id)
		b.deliverMessages(ctx, conversationID, fn)
		for {
			select {
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			case <-sub.trigger:
				b.deliverMessages(ctx, conversationID, fn)
			}
		}
	}()

	return sub.close
}

// Notify wakes every subscription affected by the event: the message list of
// the conversation and the conversation list of both participants.
func (b *Broker) Notify(event ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.msgSubs[event.ConversationID] {
		sub.wake()
	}
	for _, participant := range event.Participants {
		for _, sub := range b.convSubs[participant] {
			sub.wake()
		}
	}
}

// ActiveSubscriptions returns the number of live subscriptions of both kinds.
func (b *Broker) ActiveSubscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, subs := range b.convSubs {
		total += len(subs)
	}
	for _, subs := range b.msgSubs {
		total += len(subs)
	}
	return total
}

func (b *Broker) deliverConversations(ctx context.Context, userID string, fn ConversationListHandler) {
	conversations, err := b.conversations.FindByFilter(ctx, ConversationFilter{Participant: &userID}, nil)
	if err != nil {
		b.logger.Warn().Err(err).Str("user_id", userID).Msg("conversation subscription query failed")
		fn([]*Conversation{}, err)
		return
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastUpdatedAt.After(conversations[j].LastUpdatedAt)
	})
	fn(conversations, nil)
}

func (b *Broker) deliverMessages(ctx context.Context, conversationID string, fn MessageListHandler) {
	conv, err := b.conversations.FindByPublicID(ctx, conversationID)
	if err != nil {
		b.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("message subscription query failed")
		fn([]*Message{}, err)
		return
	}
	messages, err := b.messages.FindByConversationID(ctx, conv.ID, nil)
	if err != nil {
		b.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("message subscription query failed")
		fn([]*Message{}, err)
		return
	}
	fn(messages, nil)
}

func (b *Broker) removeConvSub(userID string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.convSubs[userID]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.convSubs, userID)
		}
	}
}

func (b *Broker) removeMsgSub(conversationID string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.msgSubs[conversationID]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.msgSubs, conversationID)
		}
	}
}
