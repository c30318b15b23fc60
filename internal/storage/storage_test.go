package storage

import (
	"context"
	"duochat/backend/internal/config"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

func TestConversationFilter_MatchesBothDirections(t *testing.T) {
	filter := conversationFilter("alice", "bob")

	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"senderId": "alice", "receiverId": "bob"}, or[0])
	assert.Equal(t, bson.M{"senderId": "bob", "receiverId": "alice"}, or[1])
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translateMongo(mongo.ErrNoDocuments), ErrNotFound)

	boom := errors.New("boom")
	assert.ErrorIs(t, translate(boom), boom)
	assert.NotErrorIs(t, translate(boom), ErrNotFound)
	assert.ErrorIs(t, translateMongo(boom), boom)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = "sqlite"

	s, err := Open(context.Background(), cfg, zerolog.Nop())
	assert.Nil(t, s)
	assert.ErrorContains(t, err, `unknown store driver "sqlite"`)
}

var (
	_ Storage = (*Service)(nil)
	_ Storage = (*MongoStore)(nil)
)
