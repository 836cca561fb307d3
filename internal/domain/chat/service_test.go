package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/workhive/workhive-server/internal/domain/query"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

// fakeConversationRepo is an in-memory ConversationRepository for tests.
type fakeConversationRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byID: make(map[uint]*Conversation)}
}

func (r *fakeConversationRepo) Create(ctx context.Context, conv *Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.PublicID == conv.PublicID {
			return platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrDuplicatedKey, "conversation already exists")
		}
	}
	r.nextID++
	conv.ID = r.nextID
	now := time.Now()
	conv.CreatedAt = now
	conv.LastUpdatedAt = now
	r.byID[conv.ID] = conv
	return nil
}

func (r *fakeConversationRepo) FindByPublicID(ctx context.Context, publicID string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.byID {
		if conv.PublicID == publicID {
			clone := *conv
			return &clone, nil
		}
	}
	return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "conversation not found")
}

func (r *fakeConversationRepo) FindByFilter(ctx context.Context, filter ConversationFilter, pagination *query.Pagination) ([]*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Conversation
	for _, conv := range r.byID {
		if filter.Participant != nil && !conv.HasParticipant(*filter.Participant) {
			continue
		}
		if filter.PublicID != nil && conv.PublicID != *filter.PublicID {
			continue
		}
		clone := *conv
		result = append(result, &clone)
	}
	return result, nil
}

func (r *fakeConversationRepo) Count(ctx context.Context, filter ConversationFilter) (int64, error) {
	convs, err := r.FindByFilter(ctx, filter, nil)
	return int64(len(convs)), err
}

func (r *fakeConversationRepo) UpdateParticipantInfo(ctx context.Context, id uint, info map[string]ParticipantInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[id]
	if !ok {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "conversation not found")
	}
	conv.ParticipantInfo = info
	return nil
}

func (r *fakeConversationRepo) SetLastMessage(ctx context.Context, id uint, last LastMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[id]
	if !ok {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "conversation not found")
	}
	conv.LastMessage = &last
	conv.LastUpdatedAt = time.Now()
	return nil
}

// fakeMessageRepo is an in-memory MessageRepository for tests.
type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   uint
	messages []*Message

	failCreate error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.nextID++
	msg.ID = r.nextID
	msg.CreatedAt = time.Now()
	clone := *msg
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *fakeMessageRepo) FindByPublicID(ctx context.Context, conversationID uint, publicID string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID && msg.PublicID == publicID {
			clone := *msg
			return &clone, nil
		}
	}
	return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "message not found")
}

func (r *fakeMessageRepo) FindByConversationID(ctx context.Context, conversationID uint, pagination *query.Pagination) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			clone := *msg
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, filter MessageFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, msg := range r.messages {
		if filter.ConversationID != nil && msg.ConversationID != *filter.ConversationID {
			continue
		}
		total++
	}
	return total, nil
}

func (r *fakeMessageRepo) MarkDeleted(ctx context.Context, conversationID uint, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID && msg.ID == id {
			msg.Deleted = true
			msg.Text = Tombstone
			return nil
		}
	}
	return platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "message not found")
}

// fakeTransactor runs the function directly; a failure inside means no
// partial state because the fakes mutate only on success paths.
type fakeTransactor struct{}

func (t *fakeTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// capturingPublisher records published change events.
type capturingPublisher struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) all() []ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ChangeEvent(nil), p.events...)
}

func newTestService() (*ChatService, *fakeConversationRepo, *fakeMessageRepo, *capturingPublisher) {
	convRepo := newFakeConversationRepo()
	msgRepo := newFakeMessageRepo()
	publisher := &capturingPublisher{}
	logger := zerolog.Nop()
	broker := NewBroker(convRepo, msgRepo, logger)
	svc := NewChatService(convRepo, msgRepo, &fakeTransactor{}, broker, publisher, logger)
	return svc, convRepo, msgRepo, publisher
}

func TestStartOrGetConversation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	infoA := ParticipantInfo{DisplayName: "Alice", ProfileImage: "https://img/a.png"}
	infoB := ParticipantInfo{DisplayName: "Bob"}

	conv, created, err := svc.StartOrGetConversation(ctx, "alice", "bob", infoA, infoB)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice_bob", conv.PublicID)
	assert.Nil(t, conv.LastMessage)
	assert.Equal(t, "Alice", conv.ParticipantInfo["alice"].DisplayName)

	// Same pair in either order returns the same conversation, not a new one.
	again, created, err := svc.StartOrGetConversation(ctx, "bob", "alice", infoB, infoA)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
	assert.Equal(t, conv.PublicID, again.PublicID)
}

func TestStartOrGetConversationRefreshesInfo(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	_, _, err := svc.StartOrGetConversation(ctx, "alice", "bob",
		ParticipantInfo{DisplayName: "Alice"}, ParticipantInfo{DisplayName: "Bob"})
	require.NoError(t, err)

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob",
		ParticipantInfo{DisplayName: "Alice Smith"}, ParticipantInfo{DisplayName: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", conv.ParticipantInfo["alice"].DisplayName)
}

func TestStartOrGetConversationValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	tests := []struct {
		name  string
		userA string
		userB string
	}{
		{name: "self conversation", userA: "alice", userB: "alice"},
		{name: "empty participant", userA: "alice", userB: ""},
		{name: "separator in id", userA: "al_ice", userB: "bob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.StartOrGetConversation(ctx, tt.userA, tt.userB, ParticipantInfo{}, ParticipantInfo{})
			require.Error(t, err)
			assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
		})
	}
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	svc, convRepo, _, publisher := newTestService()

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, "alice", conv.PublicID, "  hello there  ")
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.Text, "text is stored trimmed")
	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, "bob", msg.ReceiverID)
	assert.False(t, msg.Deleted)
	assert.NotEmpty(t, msg.PublicID)

	// The denormalized preview was written with the message.
	stored, err := convRepo.FindByPublicID(ctx, conv.PublicID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessage)
	assert.Equal(t, "hello there", stored.LastMessage.Text)
	assert.Equal(t, "alice", stored.LastMessage.SenderID)

	events := publisher.all()
	require.Len(t, events, 1)
	assert.Equal(t, conv.PublicID, events[0].ConversationID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, events[0].Participants)
}

func TestSendMessageRejectsBlankText(t *testing.T) {
	ctx := context.Background()
	svc, convRepo, msgRepo, publisher := newTestService()

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	before, err := convRepo.FindByPublicID(ctx, conv.PublicID)
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "spaces only", text: "   "},
		{name: "whitespace only", text: " \n\t "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, "alice", conv.PublicID, tt.text)
			require.Error(t, err)
			assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
		})
	}

	// Nothing was written and nothing was announced.
	total, err := msgRepo.Count(ctx, MessageFilter{ConversationID: &conv.ID})
	require.NoError(t, err)
	assert.Zero(t, total)

	stored, err := convRepo.FindByPublicID(ctx, conv.PublicID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastMessage)
	assert.Equal(t, before.LastUpdatedAt, stored.LastUpdatedAt)
	assert.Empty(t, publisher.all())
}

func TestSendMessageRejectsOutsiders(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, "mallory", conv.PublicID, "hi")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeNotFound))
}

func TestSendMessageFailureLeavesPreviewUntouched(t *testing.T) {
	ctx := context.Background()
	svc, convRepo, msgRepo, _ := newTestService()

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, "alice", conv.PublicID, "first")
	require.NoError(t, err)

	msgRepo.failCreate = gorm.ErrInvalidDB
	_, err = svc.SendMessage(ctx, "bob", conv.PublicID, "second")
	require.Error(t, err)

	stored, err := convRepo.FindByPublicID(ctx, conv.PublicID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessage)
	assert.Equal(t, "first", stored.LastMessage.Text)
}

func TestListMessagesOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.SendMessage(ctx, "alice", conv.PublicID, text)
		require.NoError(t, err)
	}

	messages, total, err := svc.ListMessages(ctx, "bob", conv.PublicID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Text)
	assert.Equal(t, "two", messages[1].Text)
	assert.Equal(t, "three", messages[2].Text)
}

func TestDeleteMessage(t *testing.T) {
	ctx := context.Background()
	svc, convRepo, _, _ := newTestService()

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, "alice", conv.PublicID, "regrettable")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, "alice", conv.PublicID, msg.PublicID))

	messages, _, err := svc.ListMessages(ctx, "alice", conv.PublicID, nil)
	require.NoError(t, err)
	require.Len(t, messages, 1, "deleted message keeps its slot")
	assert.True(t, messages[0].Deleted)
	assert.Equal(t, Tombstone, messages[0].Text)

	// Repeating the delete is a no-op.
	require.NoError(t, svc.DeleteMessage(ctx, "alice", conv.PublicID, msg.PublicID))

	// The preview still shows the original text.
	stored, err := convRepo.FindByPublicID(ctx, conv.PublicID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessage)
	assert.Equal(t, "regrettable", stored.LastMessage.Text)
}

func TestDeleteMessageOnlySender(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	conv, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, "alice", conv.PublicID, "mine")
	require.NoError(t, err)

	err = svc.DeleteMessage(ctx, "bob", conv.PublicID, msg.PublicID)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
}

func TestListConversationsScopedToUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	_, _, err := svc.StartOrGetConversation(ctx, "alice", "bob", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)
	_, _, err = svc.StartOrGetConversation(ctx, "alice", "carol", ParticipantInfo{}, ParticipantInfo{})
	require.NoError(t, err)

	conversations, total, err := svc.ListConversations(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, conversations, 2)

	conversations, total, err = svc.ListConversations(ctx, "carol", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, conversations, 1)
}
