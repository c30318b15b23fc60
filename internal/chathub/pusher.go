package chathub

import (
	"duochat/backend/internal/models"
	"errors"
)

var (
	ErrClientClosed      = errors.New("client connection closed")
	ErrSendBufferFull    = errors.New("client send buffer full")
	ErrUnknownConnection = errors.New("unknown connection")
)

// Pusher writes events to a single connection, addressed by connection id.
// Implementations must not block on the network.
type Pusher interface {
	PushPresence(connID string, online []string) error
	PushMessage(connID string, msg models.Message) error
}
