package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can sign in and chat with other users.
// Password holds the bcrypt hash and is never serialised to clients.
type User struct {
	ID         string    `gorm:"primaryKey" json:"_id" bson:"_id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	FullName   string    `gorm:"not null" json:"fullName" bson:"fullName"`
	Password   string    `gorm:"not null" json:"-" bson:"password"`
	ProfilePic string    `json:"profilePic" bson:"profilePic"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EnsureID assigns a fresh UUID when the user has none yet.
func (u *User) EnsureID() {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
}

// BeforeCreate is the GORM hook run before insert.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.EnsureID()
	return
}
