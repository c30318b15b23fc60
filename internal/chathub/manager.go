package chathub

import (
	"context"
	"duochat/backend/internal/models"
	"sync"

	"github.com/rs/zerolog"
)

// ManagerService owns the live connections of this instance. Connect and
// disconnect events are applied one at a time, each followed by a presence
// broadcast when the online set changed.
type ManagerService struct {
	Registry *Registry

	RegisterCh   chan Client
	UnregisterCh chan Client
	remoteCh     chan models.Message

	mu    sync.RWMutex
	conns map[string]Client

	lifecycle sync.Mutex
	presence  *Presence
	router    *Router
	logger    zerolog.Logger

	stopped chan struct{}
	stop    sync.Once
}

func NewManagerService(logger zerolog.Logger) *ManagerService {
	m := &ManagerService{
		Registry:     NewRegistry(),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		remoteCh:     make(chan models.Message, SendBufferSize),
		conns:        make(map[string]Client),
		logger:       logger.With().Str("component", "hub").Logger(),
		stopped:      make(chan struct{}),
	}
	m.presence = NewPresence(m.Registry, m, logger)
	m.router = NewRouter(m.Registry, m, logger)
	return m
}

// SetRelay enables cross-instance delivery.
func (m *ManagerService) SetRelay(relay Relay) { m.router.SetRelay(relay) }

// Run serialises lifecycle events until ctx is done.
func (m *ManagerService) Run(ctx context.Context) {
	defer m.stop.Do(func() { close(m.stopped) })

	for {
		select {
		case client := <-m.RegisterCh:
			m.OnConnect(client)
		case client := <-m.UnregisterCh:
			m.OnDisconnect(client)
		case msg := <-m.remoteCh:
			m.router.DeliverLocal(msg)
		case <-ctx.Done():
			m.logger.Info().Msg("hub stopped")
			return
		}
	}
}

// Register hands client to the run loop, or applies it directly once the
// loop has stopped.
func (m *ManagerService) Register(client Client) {
	select {
	case m.RegisterCh <- client:
	case <-m.stopped:
		m.OnConnect(client)
	}
}

func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.stopped:
		m.OnDisconnect(client)
	}
}

// OnConnect makes client the live connection of its user. A previous
// connection of the same user is left open but no longer addressed.
func (m *ManagerService) OnConnect(client Client) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	userID, connID := client.GetUserID(), client.GetConnID()

	m.mu.Lock()
	m.conns[connID] = client
	m.mu.Unlock()

	previous, replaced := m.Registry.Lookup(userID)
	m.Registry.Register(userID, connID)

	ev := m.logger.Info().Str("user_id", userID).Str("conn_id", connID)
	if replaced && previous != connID {
		ev = ev.Str("replaced_conn_id", previous)
	}
	ev.Msg("client connected")

	m.presence.Broadcast()
}

// OnDisconnect drops client. Presence is only rebroadcast when client was
// still the registered connection for its user.
func (m *ManagerService) OnDisconnect(client Client) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	userID, connID := client.GetUserID(), client.GetConnID()

	m.mu.Lock()
	delete(m.conns, connID)
	m.mu.Unlock()
	client.Close()

	if !m.Registry.Unregister(userID, connID) {
		m.logger.Debug().Str("user_id", userID).Str("conn_id", connID).Msg("stale disconnect ignored")
		return
	}
	m.logger.Info().Str("user_id", userID).Str("conn_id", connID).Msg("client disconnected")
	m.presence.Broadcast()
}

// OnMessagePersisted is called once a message has been stored. It reports
// whether the receiver got it on this instance.
func (m *ManagerService) OnMessagePersisted(msg models.Message) bool {
	return m.router.Deliver(msg)
}

// DeliverRemote accepts a message relayed from another instance.
func (m *ManagerService) DeliverRemote(msg models.Message) {
	select {
	case m.remoteCh <- msg:
	case <-m.stopped:
	default:
		m.logger.Warn().Str("message_id", msg.ID).Msg("remote queue full, dropping")
	}
}

func (m *ManagerService) OnlineUsers() []string {
	return m.Registry.Snapshot()
}

// Connections returns the number of open connections, orphaned ones included.
func (m *ManagerService) Connections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

func (m *ManagerService) PushPresence(connID string, online []string) error {
	return m.push(connID, models.OnlineUsersEvent(online))
}

func (m *ManagerService) PushMessage(connID string, msg models.Message) error {
	return m.push(connID, models.NewMessageEvent(msg))
}

func (m *ManagerService) push(connID string, ev models.Event) error {
	m.mu.RLock()
	client, ok := m.conns[connID]
	m.mu.RUnlock()
	if !ok {
		return ErrUnknownConnection
	}
	return client.Push(ev)
}
