package chatclient

import (
	"context"
	"duochat/backend/internal/models"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrAlreadyConnected = errors.New("session already connected")
	ErrNotConnected     = errors.New("session not connected")
	ErrNoConversation   = errors.New("no conversation selected")
)

type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnected
)

func (s SessionState) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Subscription is the listener handle for one connection. Once released no
// event is applied through it. Only a Session creates subscriptions.
type Subscription struct {
	mu     sync.RWMutex
	active bool
	once   sync.Once
	done   chan struct{}
}

func newSubscription() *Subscription {
	return &Subscription{active: true, done: make(chan struct{})}
}

func (s *Subscription) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Release waits for an in-flight event to finish and deactivates the handle.
// Releasing twice is harmless.
func (s *Subscription) Release() {
	s.once.Do(func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	})
}

// Done is closed when the listener goroutine has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// apply runs fn only while the subscription is active.
func (s *Subscription) apply(fn func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return false
	}
	fn()
	return true
}

// EventHook observes every applied event. Outcome is only meaningful for
// newMessage events. A hook runs while the subscription is held and must not
// call Connect, Disconnect or State synchronously.
type EventHook func(ev models.Event, outcome Outcome)

// Session owns the realtime connection of the signed-in user and feeds its
// events into the presence set and the Reconciler.
type Session struct {
	dialer     Dialer
	reconciler *Reconciler
	hook       EventHook
	logger     zerolog.Logger

	mu     sync.Mutex
	state  SessionState
	me     string
	stream Stream
	sub    *Subscription

	onlineMu sync.RWMutex
	online   map[string]struct{}
}

func NewSession(dialer Dialer, reconciler *Reconciler, logger zerolog.Logger) *Session {
	return &Session{
		dialer:     dialer,
		reconciler: reconciler,
		logger:     logger.With().Str("component", "chat-session").Logger(),
		online:     map[string]struct{}{},
	}
}

// SetEventHook must be called before Connect.
func (s *Session) SetEventHook(hook EventHook) { s.hook = hook }

func (s *Session) Reconciler() *Reconciler { return s.reconciler }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect opens the connection for me and starts exactly one listener.
func (s *Session) Connect(ctx context.Context, me string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConnected {
		return ErrAlreadyConnected
	}
	stream, err := s.dialer.Dial(ctx, me)
	if err != nil {
		return err
	}

	sub := newSubscription()
	s.state = StateConnected
	s.me = me
	s.stream = stream
	s.sub = sub

	go s.listen(me, stream, sub)
	s.logger.Info().Str("user_id", me).Msg("connected")
	return nil
}

// Disconnect releases the subscription, closes the connection and clears
// presence and unread state.
func (s *Session) Disconnect() error {
	sub, stream, ok := s.detach(nil)
	if !ok {
		return ErrNotConnected
	}
	if err := stream.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("close stream")
	}
	<-sub.Done()
	s.logger.Info().Msg("disconnected")
	return nil
}

// detach releases the current subscription, clears presence and unread
// state and moves the session to Disconnected, all before a new Connect can
// run. With want set, it only detaches when want is still the current
// subscription.
func (s *Session) detach(want *Subscription) (*Subscription, Stream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected || (want != nil && s.sub != want) {
		return nil, nil, false
	}
	sub, stream := s.sub, s.stream
	sub.Release()
	s.clear()
	s.state = StateDisconnected
	s.sub = nil
	s.stream = nil
	return sub, stream, true
}

func (s *Session) clear() {
	s.onlineMu.Lock()
	s.online = map[string]struct{}{}
	s.onlineMu.Unlock()
	s.reconciler.Reset()
}

func (s *Session) listen(me string, stream Stream, sub *Subscription) {
	defer close(sub.done)

	for {
		ev, err := stream.ReadEvent()
		if err != nil {
			if sub.Active() {
				s.onTransportClosed(stream, sub, err)
			}
			return
		}
		if !sub.apply(func() { s.dispatch(me, ev) }) {
			return
		}
	}
}

// onTransportClosed tears the session down when the server side went away.
func (s *Session) onTransportClosed(stream Stream, sub *Subscription, cause error) {
	if _, _, ok := s.detach(sub); !ok {
		return
	}
	_ = stream.Close()
	s.logger.Warn().Err(cause).Msg("connection lost")
}

func (s *Session) dispatch(me string, ev models.Event) {
	var outcome Outcome
	switch ev.Type {
	case models.EventOnlineUsers:
		s.setOnline(ev.OnlineUsers)
	case models.EventNewMessage:
		if ev.Message == nil {
			outcome = OutcomeMalformed
		} else {
			outcome = s.reconciler.OnIncomingMessage(*ev.Message, me)
		}
		if outcome.Dropped() {
			l := s.logger.Debug()
			if outcome == OutcomeMalformed {
				l = s.logger.Warn()
			}
			l.Str("outcome", outcome.String()).Msg("incoming message dropped")
		}
	default:
		s.logger.Debug().Str("type", ev.Type).Msg("unknown event")
	}
	if s.hook != nil {
		s.hook(ev, outcome)
	}
}

func (s *Session) setOnline(users []string) {
	next := make(map[string]struct{}, len(users))
	for _, u := range users {
		next[u] = struct{}{}
	}
	s.onlineMu.Lock()
	s.online = next
	s.onlineMu.Unlock()
}

// OnlineUsers returns the last presence set received, sorted.
func (s *Session) OnlineUsers() []string {
	s.onlineMu.RLock()
	defer s.onlineMu.RUnlock()
	out := make([]string, 0, len(s.online))
	for u := range s.online {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (s *Session) IsOnline(user string) bool {
	s.onlineMu.RLock()
	defer s.onlineMu.RUnlock()
	_, ok := s.online[user]
	return ok
}

func (s *Session) UnreadCount(peer string) int { return s.reconciler.UnreadCount(peer) }
func (s *Session) IsSelected(peer string) bool { return s.reconciler.IsSelected(peer) }

// MessageSender posts a message and returns it as stored by the server.
type MessageSender interface {
	Send(ctx context.Context, peerID, text, image string) (*models.Message, error)
}

// SendToSelected posts to the open conversation and applies the stored
// message returned by the server. The server never pushes a message back to
// its sender, so this is how the sender sees its own messages.
func (s *Session) SendToSelected(ctx context.Context, sender MessageSender, text, image string) (models.Message, Outcome, error) {
	s.mu.Lock()
	me := s.me
	s.mu.Unlock()
	if me == "" {
		return models.Message{}, OutcomeMalformed, ErrNotConnected
	}

	peer, ok := s.reconciler.Selected()
	if !ok {
		return models.Message{}, OutcomeMalformed, ErrNoConversation
	}
	stored, err := sender.Send(ctx, peer, text, image)
	if err != nil {
		return models.Message{}, OutcomeMalformed, err
	}
	return *stored, s.reconciler.OnIncomingMessage(*stored, me), nil
}
