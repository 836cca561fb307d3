// Package notify bridges committed chat changes between instances over Redis
// pub/sub, so a subscription held on one instance observes writes made on
// another.
package notify

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/workhive/workhive-server/internal/domain/chat"
)

const changeChannel = "chat_api:conversation_changes"

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// RedisPublisher publishes change events to the shared channel.
type RedisPublisher struct {
	client *redis.Client
}

var _ chat.ChangePublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish implements chat.ChangePublisher.
func (p *RedisPublisher) Publish(ctx context.Context, event chat.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, changeChannel, payload).Err()
}

// RedisSubscriber consumes change events published by peers and hands them to
// a local handler.
type RedisSubscriber struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedisSubscriber(client *redis.Client, logger zerolog.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, logger: logger}
}

// Run blocks consuming the channel until ctx is done. Malformed payloads are
// logged and skipped.
func (s *RedisSubscriber) Run(ctx context.Context, handler func(chat.ChangeEvent)) error {
	pubsub := s.client.Subscribe(ctx, changeChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event chat.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Warn().Err(err).Str("payload", msg.Payload).Msg("dropping malformed change event")
				continue
			}
			handler(event)
		}
	}
}
