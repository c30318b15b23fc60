package chathub_test

import (
	"context"
	"duochat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockPusher is a testify mock of chathub.Pusher.
type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) PushPresence(connID string, online []string) error {
	args := m.Called(connID, online)
	return args.Error(0)
}

func (m *MockPusher) PushMessage(connID string, msg models.Message) error {
	args := m.Called(connID, msg)
	return args.Error(0)
}

// MockRelay is a testify mock of chathub.Relay.
type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Publish(ctx context.Context, msg models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
