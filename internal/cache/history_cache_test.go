package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aichorus/internal/model"
)

func newTestCache(t *testing.T) (*HistoryCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewHistoryCache(client, 60*time.Second, 5*time.Second), mr
}

func TestHistoryCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	messages, hit, err := c.GetHistory(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, messages)
}

func TestHistoryCacheRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	personaID := "p1"
	stored := []model.Message{
		{ID: 1, SessionID: 7, Role: model.RoleUser, Content: "hello"},
		{ID: 2, SessionID: 7, Role: model.RoleAI, PersonaID: &personaID, Content: "hi there"},
	}
	require.NoError(t, c.SetHistory(ctx, 7, stored))

	got, hit, err := c.GetHistory(ctx, 7)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0].Content)
	require.NotNil(t, got[1].PersonaID)
	assert.Equal(t, "p1", *got[1].PersonaID)
}

func TestHistoryCacheDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetHistory(ctx, 3, []model.Message{{ID: 1, SessionID: 3}}))
	require.NoError(t, c.DeleteHistory(ctx, 3))

	_, hit, err := c.GetHistory(ctx, 3)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestHistoryCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetHistory(ctx, 5, []model.Message{{ID: 1, SessionID: 5}}))
	mr.FastForward(61 * time.Second)

	_, hit, err := c.GetHistory(ctx, 5)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDirtyMarker(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	dirty, err := c.IsDirty(ctx, 9)
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, c.MarkDirty(ctx, 9))
	dirty, err = c.IsDirty(ctx, 9)
	require.NoError(t, err)
	assert.True(t, dirty)

	// The marker clears itself after its TTL.
	mr.FastForward(6 * time.Second)
	dirty, err = c.IsDirty(ctx, 9)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestDirtyMarkerScopedPerSession(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.MarkDirty(ctx, 1))

	dirty, err := c.IsDirty(ctx, 2)
	require.NoError(t, err)
	assert.False(t, dirty)
}
