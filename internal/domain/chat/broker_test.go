package chat

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conversationDelivery struct {
	conversations []*Conversation
	err           error
}

type messageDelivery struct {
	messages []*Message
	err      error
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		panic("unreachable")
	}
}

func TestBrokerDeliversInitialConversationList(t *testing.T) {
	ctx := context.Background()
	svc, convRepo, msgRepo, _ := newTestService()
	broker := NewBroker(convRepo, msgRepo, zerolog.Nop())

	_, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	deliveries := make(chan conversationDelivery, 4)
	cancel := broker.SubscribeConversations(ctx, "alice", func(conversations []*Conversation, err error) {
		deliveries <- conversationDelivery{conversations: conversations, err: err}
	})
	defer cancel()

	first := waitFor(t, deliveries)
	require.NoError(t, first.err)
	require.Len(t, first.conversations, 1)
	assert.Equal(t, "alice_bob", first.conversations[0].PublicID)
}

func TestBrokerWakesOnNotify(t *testing.T) {
	ctx := context.Background()
	svc, convRepo, msgRepo, _ := newTestService()
	broker := NewBroker(convRepo, msgRepo, zerolog.Nop())

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	deliveries := make(chan messageDelivery, 4)
	cancel := broker.SubscribeMessages(ctx, conv.PublicID, func(messages []*Message, err error) {
		deliveries <- messageDelivery{messages: messages, err: err}
	})
	defer cancel()

	initial := waitFor(t, deliveries)
	require.NoError(t, initial.err)
	assert.Empty(t, initial.messages)

	_, err = svc.SendMessage(ctx, "alice", conv.PublicID, "ping")
	require.NoError(t, err)
	broker.Notify(ChangeEvent{ConversationID: conv.PublicID, Participants: conv.Participants()})

	next := waitFor(t, deliveries)
	require.NoError(t, next.err)
	require.Len(t, next.messages, 1)
	assert.Equal(t, "ping", next.messages[0].Text)
}

func TestBrokerNotifyWakesBothParticipants(t *testing.T) {
	ctx := context.Background()
	svc, convRepo, msgRepo, _ := newTestService()
	broker := NewBroker(convRepo, msgRepo, zerolog.Nop())

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	aliceCh := make(chan conversationDelivery, 4)
	bobCh := make(chan conversationDelivery, 4)
	cancelA := broker.SubscribeConversations(ctx, "alice", func(conversations []*Conversation, err error) {
		aliceCh <- conversationDelivery{conversations: conversations, err: err}
	})
	defer cancelA()
	cancelB := broker.SubscribeConversations(ctx, "bob", func(conversations []*Conversation, err error) {
		bobCh <- conversationDelivery{conversations: conversations, err: err}
	})
	defer cancelB()

	waitFor(t, aliceCh)
	waitFor(t, bobCh)

	broker.Notify(ChangeEvent{ConversationID: conv.PublicID, Participants: conv.Participants()})

	aliceNext := waitFor(t, aliceCh)
	bobNext := waitFor(t, bobCh)
	require.NoError(t, aliceNext.err)
	require.NoError(t, bobNext.err)
}

func TestBrokerErrorFallback(t *testing.T) {
	ctx := context.Background()
	convRepo := newFakeConversationRepo()
	msgRepo := newFakeMessageRepo()
	broker := NewBroker(convRepo, msgRepo, zerolog.Nop())

	deliveries := make(chan messageDelivery, 4)
	// No such conversation: the subscription still delivers, with an empty
	// list and the lookup error.
	cancel := broker.SubscribeMessages(ctx, "alice_bob", func(messages []*Message, err error) {
		deliveries <- messageDelivery{messages: messages, err: err}
	})
	defer cancel()

	first := waitFor(t, deliveries)
	require.Error(t, first.err)
	assert.NotNil(t, first.messages)
	assert.Empty(t, first.messages)
}

func TestBrokerCancelStopsDeliveries(t *testing.T) {
	ctx := context.Background()
	svc, convRepo, msgRepo, _ := newTestService()
	broker := NewBroker(convRepo, msgRepo, zerolog.Nop())

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	deliveries := make(chan messageDelivery, 16)
	cancel := broker.SubscribeMessages(ctx, conv.PublicID, func(messages []*Message, err error) {
		deliveries <- messageDelivery{messages: messages, err: err}
	})
	waitFor(t, deliveries)

	cancel()
	cancel() // idempotent

	assert.Eventually(t, func() bool {
		return broker.ActiveSubscriptions() == 0
	}, 2*time.Second, 10*time.Millisecond)

	broker.Notify(ChangeEvent{ConversationID: conv.PublicID, Participants: conv.Participants()})
	select {
	case d := <-deliveries:
		t.Fatalf("unexpected delivery after cancel: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBrokerContextCancellationCleansUp(t *testing.T) {
	svc, convRepo, msgRepo, _ := newTestService()
	broker := NewBroker(convRepo, msgRepo, zerolog.Nop())

	_, _, err := svc.StartOrGetConversation(context.Background(), "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	ctx, cancelCtx := context.WithCancel(context.Background())
	deliveries := make(chan conversationDelivery, 4)
	_ = broker.SubscribeConversations(ctx, "alice", func(conversations []*Conversation, err error) {
		deliveries <- conversationDelivery{conversations: conversations, err: err}
	})
	waitFor(t, deliveries)

	cancelCtx()
	assert.Eventually(t, func() bool {
		return broker.ActiveSubscriptions() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
