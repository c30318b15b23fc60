package models_test

import (
	"duochat/backend/internal/models"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	user := &models.User{
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
		Password: "hash",
	}
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	err := user.BeforeCreate(nil) // nil *gorm.DB is fine for this hook

	assert.NoError(t, err)
	parsed, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{ID: existingID, Email: "bob@example.com"}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID)
}

func TestUserBeforeCreate_MultipleUsers(t *testing.T) {
	users := []*models.User{
		{Email: "a@example.com"},
		{Email: "b@example.com"},
		{Email: "c@example.com"},
	}

	generated := make(map[string]bool)
	for _, user := range users {
		assert.NoError(t, user.BeforeCreate(nil))
		assert.NotContains(t, generated, user.ID, "Each user should have a unique ID")
		generated[user.ID] = true
	}
	assert.Len(t, generated, len(users))
}

// TestUserStructTags catches accidental tag removal during refactoring.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")
	assert.Equal(t, "_id", idField.Tag.Get("bson"))

	emailField, found := userType.FieldByName("Email")
	assert.True(t, found)
	assert.Contains(t, emailField.Tag.Get("gorm"), "uniqueIndex", "Email should have unique index")

	pwField, found := userType.FieldByName("Password")
	assert.True(t, found)
	assert.Equal(t, "-", pwField.Tag.Get("json"), "Password must never be serialised")
}

func TestUserJSON_OmitsPassword(t *testing.T) {
	user := models.User{ID: "u1", Email: "ada@example.com", FullName: "Ada", Password: "$2a$10$secret"}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), `"fullName":"Ada"`)
	assert.Contains(t, string(data), `"_id":"u1"`)
}

func BenchmarkUserBeforeCreate(b *testing.B) {
	user := &models.User{Email: "bench@example.com"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		user.ID = ""
		_ = user.BeforeCreate(nil)
	}
}
