package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *JSONCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewJSONCache(client)
}

type item struct {
	ID    string `json:"id"`
	Price int    `json:"price"`
}

func TestJSONCache_SetGet(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, SpecialistKey("1"), item{ID: "1", Price: 40}, time.Hour))

	var got item
	require.NoError(t, c.GetJSON(ctx, SpecialistKey("1"), &got))
	assert.Equal(t, item{ID: "1", Price: 40}, got)
	assert.Equal(t, time.Hour, mr.TTL("specialist:1"))

	mr.FastForward(time.Hour + time.Second)
	assert.ErrorIs(t, c.GetJSON(ctx, SpecialistKey("1"), &got), ErrMiss)
}

func TestJSONCache_Delete(t *testing.T) {
	_, c := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, UserSessionsKey("u"), []item{}, time.Minute))
	require.NoError(t, c.Delete(ctx, UserSessionsKey("u")))
	require.NoError(t, c.Delete(ctx))

	var got []item
	assert.ErrorIs(t, c.GetJSON(ctx, "sessions:user:u", &got), ErrMiss)
}

func TestJSONCache_ErrorsWhenRedisDown(t *testing.T) {
	mr, c := setupMiniRedis(t)
	mr.Close()

	var got item
	err := c.GetJSON(context.Background(), ReviewsKey("1"), &got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Error(t, c.Ping(context.Background()))
}
