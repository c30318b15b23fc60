package chathub

import (
	"context"
	"duochat/backend/internal/models"
	"time"

	"github.com/rs/zerolog"
)

const relayPublishTimeout = 2 * time.Second

// Relay forwards a message to other server instances.
type Relay interface {
	Publish(ctx context.Context, msg models.Message) error
}

// Router hands a persisted message to its receiver's live connection, if any.
// Delivery is best effort and at most once: nothing is queued or retried.
type Router struct {
	registry *Registry
	pusher   Pusher
	relay    Relay
	logger   zerolog.Logger
}

func NewRouter(registry *Registry, pusher Pusher, logger zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		pusher:   pusher,
		logger:   logger.With().Str("component", "router").Logger(),
	}
}

// SetRelay attaches a cross-instance relay used when the receiver is not
// connected to this instance.
func (r *Router) SetRelay(relay Relay) { r.relay = relay }

// Deliver pushes msg to the receiver and reports whether a local connection
// accepted it. The sender's own connection is never notified.
func (r *Router) Deliver(msg models.Message) bool {
	if msg.ReceiverID == msg.SenderID {
		return false
	}
	if r.DeliverLocal(msg) {
		return true
	}
	if _, online := r.registry.Lookup(msg.ReceiverID); online || r.relay == nil {
		return false
	}

	go r.publish(r.relay, msg)
	return false
}

// publish runs off the caller's goroutine so a slow relay never holds up
// the sender.
func (r *Router) publish(relay Relay, msg models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), relayPublishTimeout)
	defer cancel()
	if err := relay.Publish(ctx, msg); err != nil {
		r.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("relay publish failed")
	}
}

// DeliverLocal only considers connections held by this instance.
func (r *Router) DeliverLocal(msg models.Message) bool {
	if msg.ReceiverID == msg.SenderID {
		return false
	}
	connID, ok := r.registry.Lookup(msg.ReceiverID)
	if !ok {
		return false
	}
	if err := r.pusher.PushMessage(connID, msg); err != nil {
		r.logger.Warn().Err(err).
			Str("receiver_id", msg.ReceiverID).
			Str("conn_id", connID).
			Msg("message push failed")
		return false
	}
	return true
}
