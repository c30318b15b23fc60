package chatclient_test

import (
	"context"
	"duochat/backend/internal/chatclient"
	"duochat/backend/internal/models"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const me = "alice"

func msg(id, from, to, text string) models.Message {
	return models.Message{ID: id, SenderID: from, ReceiverID: to, Text: text}
}

// MockFetcher is a testify mock of chatclient.HistoryFetcher.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) History(ctx context.Context, peerID string) ([]models.Message, error) {
	args := m.Called(ctx, peerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func TestApply_Partition(t *testing.T) {
	selectedBob := chatclient.State{Selected: "bob", Unread: map[string]int{}}
	nothingSelected := chatclient.State{Unread: map[string]int{}}

	tests := []struct {
		name       string
		state      chatclient.State
		msg        models.Message
		want       chatclient.Outcome
		wantUnread map[string]int
		wantShown  int
	}{
		{"from selected peer is appended", selectedBob, msg("m1", "bob", me, "hi"), chatclient.OutcomeAppended, map[string]int{}, 1},
		{"own message to selected peer is appended", selectedBob, msg("m1", me, "bob", "hi"), chatclient.OutcomeAppended, map[string]int{}, 1},
		{"from other peer counts unread", selectedBob, msg("m1", "carol", me, "hi"), chatclient.OutcomeUnread, map[string]int{"carol": 1}, 0},
		{"nothing selected counts unread", nothingSelected, msg("m1", "bob", me, "hi"), chatclient.OutcomeUnread, map[string]int{"bob": 1}, 0},
		{"own message elsewhere is a self echo", selectedBob, msg("m1", me, "carol", "hi"), chatclient.OutcomeSelfEcho, map[string]int{}, 0},
		{"own message with nothing selected is a self echo", nothingSelected, msg("m1", me, "bob", "hi"), chatclient.OutcomeSelfEcho, map[string]int{}, 0},
		{"missing sender is malformed", selectedBob, msg("m1", "", me, "hi"), chatclient.OutcomeMalformed, map[string]int{}, 0},
		{"missing receiver is malformed", selectedBob, msg("m1", "bob", "", "hi"), chatclient.OutcomeMalformed, map[string]int{}, 0},
		{"not addressed to me is malformed", selectedBob, msg("m1", "bob", "carol", "hi"), chatclient.OutcomeMalformed, map[string]int{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, outcome := chatclient.Apply(tt.state, tt.msg, me)
			assert.Equal(t, tt.want, outcome)
			assert.Equal(t, tt.wantUnread, next.Unread)
			assert.Len(t, next.Visible, tt.wantShown)
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := chatclient.State{Selected: "bob", Visible: []models.Message{msg("m0", "bob", me, "old")}, Unread: map[string]int{"carol": 1}}

	_, _ = chatclient.Apply(in, msg("m1", "bob", me, "new"), me)
	_, _ = chatclient.Apply(in, msg("m2", "carol", me, "new"), me)

	assert.Len(t, in.Visible, 1)
	assert.Equal(t, map[string]int{"carol": 1}, in.Unread)
}

func TestApply_DeduplicatesByID(t *testing.T) {
	s := chatclient.State{Selected: "bob", Unread: map[string]int{}}
	s, first := chatclient.Apply(s, msg("m1", "bob", me, "hi"), me)
	s, second := chatclient.Apply(s, msg("m1", "bob", me, "hi"), me)

	assert.Equal(t, chatclient.OutcomeAppended, first)
	assert.Equal(t, chatclient.OutcomeDuplicate, second)
	assert.Len(t, s.Visible, 1)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "appended", chatclient.OutcomeAppended.String())
	assert.Equal(t, "self-echo", chatclient.OutcomeSelfEcho.String())
	assert.True(t, chatclient.OutcomeMalformed.Dropped())
	assert.False(t, chatclient.OutcomeUnread.Dropped())
}

func TestReconciler_UnreadThenSelect(t *testing.T) {
	history := []models.Message{msg("m1", "bob", me, "one"), msg("m2", "bob", me, "two")}
	fetcher := new(MockFetcher)
	fetcher.On("History", mock.Anything, "bob").Return(history, nil)
	r := chatclient.NewReconciler(fetcher)

	assert.Equal(t, chatclient.OutcomeUnread, r.OnIncomingMessage(history[0], me))
	assert.Equal(t, chatclient.OutcomeUnread, r.OnIncomingMessage(history[1], me))
	assert.Equal(t, 2, r.UnreadCount("bob"))

	require.NoError(t, r.SelectConversation(context.Background(), "bob"))

	assert.Zero(t, r.UnreadCount("bob"))
	assert.True(t, r.IsSelected("bob"))
	assert.Equal(t, history, r.VisibleMessages())
	fetcher.AssertExpectations(t)
}

func TestReconciler_OrderedAppendWhileSelected(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("History", mock.Anything, "bob").Return([]models.Message{}, nil)
	r := chatclient.NewReconciler(fetcher)
	require.NoError(t, r.SelectConversation(context.Background(), "bob"))

	m1, m2 := msg("m1", "bob", me, "first"), msg("m2", "bob", me, "second")
	r.OnIncomingMessage(m1, me)
	r.OnIncomingMessage(m2, me)

	assert.Equal(t, []models.Message{m1, m2}, r.VisibleMessages())
	assert.Zero(t, r.UnreadCount("bob"))
}

func TestReconciler_SelfEchoNeverCounts(t *testing.T) {
	r := chatclient.NewReconciler(nil)

	outcome := r.OnIncomingMessage(msg("m1", me, "bob", "hi"), me)

	assert.Equal(t, chatclient.OutcomeSelfEcho, outcome)
	assert.Empty(t, r.UnreadCounts())
}

func TestReconciler_LiveMessageDuringFetchIsKept(t *testing.T) {
	stored := msg("m1", "bob", me, "stored")
	live := msg("m2", "bob", me, "live")

	var r *chatclient.Reconciler
	fetcher := new(MockFetcher)
	fetcher.On("History", mock.Anything, "bob").
		Run(func(mock.Arguments) {
			assert.Equal(t, chatclient.OutcomeAppended, r.OnIncomingMessage(live, me))
		}).
		Return([]models.Message{stored}, nil)
	r = chatclient.NewReconciler(fetcher)

	require.NoError(t, r.SelectConversation(context.Background(), "bob"))
	assert.Equal(t, []models.Message{stored, live}, r.VisibleMessages())
}

func TestReconciler_LiveMessageAlreadyInHistoryIsNotDuplicated(t *testing.T) {
	m1 := msg("m1", "bob", me, "hi")
	var r *chatclient.Reconciler
	fetcher := new(MockFetcher)
	fetcher.On("History", mock.Anything, "bob").
		Run(func(mock.Arguments) { r.OnIncomingMessage(m1, me) }).
		Return([]models.Message{m1}, nil)
	r = chatclient.NewReconciler(fetcher)

	require.NoError(t, r.SelectConversation(context.Background(), "bob"))
	assert.Equal(t, []models.Message{m1}, r.VisibleMessages())
}

func TestReconciler_SupersededFetchIsDiscarded(t *testing.T) {
	var r *chatclient.Reconciler
	fetcher := new(MockFetcher)
	fetcher.On("History", mock.Anything, "bob").
		Run(func(mock.Arguments) { r.DeselectConversation() }).
		Return([]models.Message{msg("m1", "bob", me, "late")}, nil)
	r = chatclient.NewReconciler(fetcher)

	require.NoError(t, r.SelectConversation(context.Background(), "bob"))

	_, selected := r.Selected()
	assert.False(t, selected)
	assert.Empty(t, r.VisibleMessages())
}

func TestReconciler_FetchError(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("History", mock.Anything, "bob").Return(nil, errors.New("offline"))
	r := chatclient.NewReconciler(fetcher)
	r.OnIncomingMessage(msg("m1", "bob", me, "hi"), me)

	err := r.SelectConversation(context.Background(), "bob")

	assert.EqualError(t, err, "offline")
	assert.True(t, r.IsSelected("bob"))
	assert.Zero(t, r.UnreadCount("bob"))
}

func TestReconciler_Reset(t *testing.T) {
	r := chatclient.NewReconciler(nil)
	r.OnIncomingMessage(msg("m1", "bob", me, "hi"), me)
	require.NoError(t, r.SelectConversation(context.Background(), "carol"))

	r.Reset()

	assert.Empty(t, r.UnreadCounts())
	assert.False(t, r.IsSelected("carol"))
}

func TestReconciler_ConcurrentMessagesAreCountedOnce(t *testing.T) {
	r := chatclient.NewReconciler(nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.OnIncomingMessage(msg("", "bob", me, "hi"), me)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, r.UnreadCount("bob"))
}
