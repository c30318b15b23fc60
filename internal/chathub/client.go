package chathub

import "duochat/backend/internal/models"

// Client is one live realtime connection owned by a single user.
type Client interface {
	// GetUserID returns the authenticated user behind the connection.
	GetUserID() string
	// GetConnID returns an id unique to this connection. A reconnect by the
	// same user gets a new one.
	GetConnID() string

	// Push queues an event for the connection without waiting on the network.
	// It fails once the client is closed or its buffer is full.
	Push(ev models.Event) error

	// Run starts the connection's read and write pumps.
	Run()
	// Close stops outgoing traffic. Safe to call more than once.
	Close()
}
