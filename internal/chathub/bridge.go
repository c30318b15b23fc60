package chathub

import (
	"context"
	"duochat/backend/internal/models"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RemoteTarget receives messages published by other instances.
type RemoteTarget interface {
	DeliverRemote(msg models.Message)
}

// bridgeEnvelope tags a message with the publishing instance so a node can
// skip its own publications.
type bridgeEnvelope struct {
	InstanceID string         `json:"instance_id"`
	Message    models.Message `json:"message"`
}

// RedisBridge relays messages for receivers connected to another instance
// over Redis pub/sub. Presence is not relayed: each instance reports only
// its own connections.
type RedisBridge struct {
	client     *redis.Client
	channel    string
	instanceID string
	target     RemoteTarget
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active bool
}

func NewRedisBridge(client *redis.Client, prefix string, target RemoteTarget, logger zerolog.Logger) *RedisBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBridge{
		client:     client,
		channel:    prefix + "messages",
		instanceID: uuid.New().String(),
		target:     target,
		logger:     logger.With().Str("component", "redis-bridge").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes and begins relaying in the background.
func (b *RedisBridge) Start() error {
	sub := b.client.Subscribe(b.ctx, b.channel)
	if _, err := sub.Receive(b.ctx); err != nil {
		_ = sub.Close()
		return err
	}

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.listen(sub)

	b.logger.Info().
		Str("instance_id", b.instanceID).
		Str("channel", b.channel).
		Msg("redis bridge started")
	return nil
}

func (b *RedisBridge) Publish(ctx context.Context, msg models.Message) error {
	data, err := json.Marshal(bridgeEnvelope{InstanceID: b.instanceID, Message: msg})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Stop ends the subscription. The Redis client is owned by the caller.
func (b *RedisBridge) Stop() {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
}

func (b *RedisBridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

func (b *RedisBridge) listen(sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handlePayload(msg.Payload)
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *RedisBridge) handlePayload(payload string) {
	var env bridgeEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Error().Err(err).Msg("failed to decode relayed message")
		return
	}
	if env.InstanceID == b.instanceID {
		return
	}

	b.logger.Debug().
		Str("from_instance", env.InstanceID).
		Str("message_id", env.Message.ID).
		Msg("relaying message")
	b.target.DeliverRemote(env.Message)
}
