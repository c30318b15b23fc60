package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMalformedMessage = errors.New("message is missing sender or receiver")
	ErrEmptyMessage     = errors.New("message has neither text nor image")
)

// Message is one direct message between two users. It is immutable once
// persisted; the store assigns ID and CreatedAt.
type Message struct {
	ID         string    `gorm:"primaryKey" json:"_id" bson:"_id"`
	SenderID   string    `gorm:"index;not null" json:"senderId" bson:"senderId"`
	ReceiverID string    `gorm:"index;not null" json:"receiverId" bson:"receiverId"`
	Text       string    `json:"text,omitempty" bson:"text,omitempty"`
	Image      string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt" bson:"createdAt"`
}

// Validate checks that both endpoints are set.
func (m Message) Validate() error {
	if m.SenderID == "" || m.ReceiverID == "" {
		return ErrMalformedMessage
	}
	return nil
}

func (m Message) HasContent() bool {
	return m.Text != "" || m.Image != ""
}

// Peer returns the other participant from the point of view of userID.
func (m Message) Peer(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Involves reports whether the message belongs to the conversation between a and b.
func (m Message) Involves(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func (m *Message) EnsureID() {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	m.EnsureID()
	return
}
