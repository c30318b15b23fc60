package chathub_test

import (
	"duochat/backend/internal/chathub"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPresence_BroadcastsFullSetToEveryConnection(t *testing.T) {
	r := chathub.NewRegistry()
	r.Register("alice", "c1")
	r.Register("bob", "c2")

	pusher := new(MockPusher)
	online := []string{"alice", "bob"}
	pusher.On("PushPresence", "c1", online).Return(nil).Once()
	pusher.On("PushPresence", "c2", online).Return(nil).Once()

	delivered := chathub.NewPresence(r, pusher, zerolog.Nop()).Broadcast()

	assert.Equal(t, 2, delivered)
	pusher.AssertExpectations(t)
}

func TestPresence_FailureIsIsolated(t *testing.T) {
	r := chathub.NewRegistry()
	r.Register("alice", "c1")
	r.Register("bob", "c2")
	r.Register("carol", "c3")

	pusher := new(MockPusher)
	pusher.On("PushPresence", "c1", mock.Anything).Return(nil)
	pusher.On("PushPresence", "c2", mock.Anything).Return(errors.New("broken pipe"))
	pusher.On("PushPresence", "c3", mock.Anything).Return(nil)

	delivered := chathub.NewPresence(r, pusher, zerolog.Nop()).Broadcast()

	assert.Equal(t, 2, delivered)
	pusher.AssertNumberOfCalls(t, "PushPresence", 3)
}

func TestPresence_EmptyRegistryPushesNothing(t *testing.T) {
	pusher := new(MockPusher)

	delivered := chathub.NewPresence(chathub.NewRegistry(), pusher, zerolog.Nop()).Broadcast()

	assert.Zero(t, delivered)
	pusher.AssertNotCalled(t, "PushPresence", mock.Anything, mock.Anything)
}
