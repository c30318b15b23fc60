package chatclient

import (
	"context"
	"duochat/backend/internal/models"
	"sync"
)

// Outcome says what happened to one incoming message.
type Outcome int

const (
	OutcomeAppended Outcome = iota
	OutcomeUnread
	OutcomeSelfEcho
	OutcomeMalformed
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAppended:
		return "appended"
	case OutcomeUnread:
		return "unread"
	case OutcomeSelfEcho:
		return "self-echo"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Dropped reports whether the message was neither shown nor counted.
func (o Outcome) Dropped() bool {
	return o == OutcomeSelfEcho || o == OutcomeMalformed || o == OutcomeDuplicate
}

// State is the client view of the user's conversations.
type State struct {
	Selected string
	Visible  []models.Message
	Unread   map[string]int
}

// Apply folds one incoming message into s. The input state is not modified.
func Apply(s State, msg models.Message, me string) (State, Outcome) {
	if msg.Validate() != nil || (msg.SenderID != me && msg.ReceiverID != me) {
		return s, OutcomeMalformed
	}
	peer := msg.Peer(me)

	if s.Selected != "" && s.Selected == peer {
		for _, m := range s.Visible {
			if m.ID != "" && m.ID == msg.ID {
				return s, OutcomeDuplicate
			}
		}
		visible := make([]models.Message, len(s.Visible), len(s.Visible)+1)
		copy(visible, s.Visible)
		s.Visible = append(visible, msg)
		return s, OutcomeAppended
	}

	if msg.SenderID == me {
		return s, OutcomeSelfEcho
	}

	unread := make(map[string]int, len(s.Unread)+1)
	for k, v := range s.Unread {
		unread[k] = v
	}
	unread[peer]++
	s.Unread = unread
	return s, OutcomeUnread
}

// HistoryFetcher loads the stored conversation with a peer, oldest first.
type HistoryFetcher interface {
	History(ctx context.Context, peerID string) ([]models.Message, error)
}

// Reconciler holds the conversation State and applies each incoming message
// as one atomic step.
type Reconciler struct {
	mu      sync.Mutex
	state   State
	fetcher HistoryFetcher
	// gen changes on every selection change so a slow fetch can tell it was
	// superseded.
	gen uint64
}

func NewReconciler(fetcher HistoryFetcher) *Reconciler {
	return &Reconciler{fetcher: fetcher, state: State{Unread: map[string]int{}}}
}

func (r *Reconciler) OnIncomingMessage(msg models.Message, me string) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, outcome := Apply(r.state, msg, me)
	r.state = next
	return outcome
}

// SelectConversation opens the conversation with peer: its unread counter is
// cleared and its history fetched. Messages that arrive while the fetch is in
// flight are kept after the fetched history.
func (r *Reconciler) SelectConversation(ctx context.Context, peer string) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.state.Selected = peer
	r.state.Visible = nil
	r.state.Unread = without(r.state.Unread, peer)
	r.mu.Unlock()

	if r.fetcher == nil {
		return nil
	}
	history, err := r.fetcher.History(ctx, peer)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return nil
	}
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(history))
	for _, m := range history {
		seen[m.ID] = struct{}{}
	}
	merged := append([]models.Message(nil), history...)
	for _, m := range r.state.Visible {
		if _, dup := seen[m.ID]; !dup {
			merged = append(merged, m)
		}
	}
	r.state.Visible = merged
	r.state.Unread = without(r.state.Unread, peer)
	return nil
}

func (r *Reconciler) DeselectConversation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.state.Selected = ""
	r.state.Visible = nil
}

// Reset drops selection and every unread counter.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.state = State{Unread: map[string]int{}}
}

func (r *Reconciler) UnreadCount(peer string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Unread[peer]
}

func (r *Reconciler) UnreadCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.state.Unread))
	for k, v := range r.state.Unread {
		out[k] = v
	}
	return out
}

func (r *Reconciler) IsSelected(peer string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return peer != "" && r.state.Selected == peer
}

func (r *Reconciler) Selected() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Selected, r.state.Selected != ""
}

func (r *Reconciler) VisibleMessages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Message(nil), r.state.Visible...)
}

func without(m map[string]int, key string) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}
