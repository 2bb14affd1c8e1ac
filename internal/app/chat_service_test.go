package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"aichorus/internal/cache"
	"aichorus/internal/model"
	"aichorus/internal/repository"
)

func newChatService(db *gorm.DB, publisher MessageEventPublisher) *ChatService {
	return NewChatService(
		repository.NewSessionRepository(db),
		repository.NewMessageRepository(db),
		nil, publisher, nil,
	)
}

func TestCreateSessionDefaultTopic(t *testing.T) {
	svc := newChatService(newTestDB(t), nil)

	session, err := svc.CreateSession("  ")
	require.NoError(t, err)
	assert.Equal(t, "New Conversation", session.Topic)
	assert.NotZero(t, session.ID)
}

func TestCreateSessionKeepsTopic(t *testing.T) {
	svc := newChatService(newTestDB(t), nil)

	session, err := svc.CreateSession(" weekend plans ")
	require.NoError(t, err)
	assert.Equal(t, "weekend plans", session.Topic)
}

func TestUpdateTopic(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "old")

	svc := newChatService(db, nil)
	require.NoError(t, svc.UpdateTopic(sessionID, "new topic"))

	var session model.Session
	require.NoError(t, db.First(&session, sessionID).Error)
	assert.Equal(t, "new topic", session.Topic)

	assert.ErrorIs(t, svc.UpdateTopic(999, "x"), ErrSessionNotFound)
	assert.ErrorIs(t, svc.UpdateTopic(sessionID, "  "), ErrInvalidInput)
}

func TestRecordUserMessage(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "log")
	publisher := &capturePublisher{}

	svc := newChatService(db, publisher)
	message, err := svc.RecordUserMessage(context.Background(), sessionID, "  hello  ", nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, message.Role)
	assert.Equal(t, "hello", message.Content)
	assert.Nil(t, message.PersonaID)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, message.ID, publisher.events[0].ID)
}

func TestRecordUserMessageValidation(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "log")

	svc := newChatService(db, nil)

	_, err := svc.RecordUserMessage(context.Background(), sessionID, "   ", nil)
	assert.ErrorIs(t, err, ErrMessageEmpty)

	_, err = svc.RecordUserMessage(context.Background(), 999, "hi", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetHistoryOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "log")
	for _, content := range []string{"one", "two", "three"} {
		seedUserMessage(t, db, sessionID, content)
	}

	svc := newChatService(db, nil)

	all, err := svc.GetHistory(context.Background(), sessionID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)
	assert.Equal(t, "three", all[2].Content)

	tail, err := svc.GetHistory(context.Background(), sessionID, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "two", tail[0].Content)
}

func TestGetHistoryCacheInvalidation(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "log")
	seedUserMessage(t, db, sessionID, "first")

	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	historyCache := cache.NewHistoryCache(client, time.Minute, time.Second)

	svc := NewChatService(
		repository.NewSessionRepository(db),
		repository.NewMessageRepository(db),
		historyCache, nil, nil,
	)
	ctx := context.Background()

	first, err := svc.GetHistory(ctx, sessionID, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// The append marks the session dirty and drops the cached transcript, so
	// the next read sees the new message.
	_, err = svc.RecordUserMessage(ctx, sessionID, "second", nil)
	require.NoError(t, err)

	second, err := svc.GetHistory(ctx, sessionID, 0)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "second", second[1].Content)

	// Once the dirty marker lapses the transcript is cached again and served
	// from the cache.
	mr.FastForward(2 * time.Second)
	_, err = svc.GetHistory(ctx, sessionID, 0)
	require.NoError(t, err)

	seedUserMessage(t, db, sessionID, "third")
	cached, err := svc.GetHistory(ctx, sessionID, 0)
	require.NoError(t, err)
	assert.Len(t, cached, 2, "stale cached transcript expected until invalidated")
}

func TestGetHistoryUnknownSession(t *testing.T) {
	svc := newChatService(newTestDB(t), nil)

	_, err := svc.GetHistory(context.Background(), 404, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
