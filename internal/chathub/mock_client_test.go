package chathub_test

import (
	"duochat/backend/internal/chathub"
	"duochat/backend/internal/models"
	"sync"
)

// MockClient records every pushed event. Setting failWith makes Push fail.
type MockClient struct {
	userID string
	connID string

	mu       sync.Mutex
	events   []models.Event
	closed   bool
	failWith error
}

func newMockClient(userID, connID string) *MockClient {
	return &MockClient{userID: userID, connID: connID}
}

func (c *MockClient) GetUserID() string { return c.userID }
func (c *MockClient) GetConnID() string { return c.connID }

func (c *MockClient) Push(ev models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	if c.closed {
		return chathub.ErrClientClosed
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *MockClient) Events() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Event(nil), c.events...)
}

func (c *MockClient) Messages() []models.Message {
	var out []models.Message
	for _, ev := range c.Events() {
		if ev.Type == models.EventNewMessage {
			out = append(out, *ev.Message)
		}
	}
	return out
}

// LastPresence returns the most recent online set pushed to the client.
func (c *MockClient) LastPresence() ([]string, bool) {
	events := c.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == models.EventOnlineUsers {
			return events[i].OnlineUsers, true
		}
	}
	return nil, false
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var _ chathub.Client = (*MockClient)(nil)
