package models

import "encoding/json"

// Event names pushed over the realtime socket.
const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "getOnlineUsers"
)

// Event is the envelope written to a client connection.
type Event struct {
	Type        string   `json:"type"`
	Message     *Message `json:"message,omitempty"`
	OnlineUsers []string `json:"onlineUsers,omitempty"`
}

func NewMessageEvent(msg Message) Event {
	return Event{Type: EventNewMessage, Message: &msg}
}

// OnlineUsersEvent carries the full presence set, never a delta.
func OnlineUsersEvent(online []string) Event {
	if online == nil {
		online = []string{}
	}
	return Event{Type: EventOnlineUsers, OnlineUsers: online}
}

// MarshalJSON always writes the online set of a presence event, even when
// nobody is online.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	if e.Type != EventOnlineUsers {
		return json.Marshal(plain(e))
	}
	online := e.OnlineUsers
	if online == nil {
		online = []string{}
	}
	return json.Marshal(struct {
		Type        string   `json:"type"`
		OnlineUsers []string `json:"onlineUsers"`
	}{Type: e.Type, OnlineUsers: online})
}
