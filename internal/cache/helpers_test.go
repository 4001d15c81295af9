package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

type cachedPost struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func TestGetSetJSONRoundTrip(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	SetJSON(ctx, "post:1", cachedPost{ID: 1, Title: "hello"}, time.Minute)

	var got cachedPost
	require.True(t, GetJSON(ctx, "post:1", "post", &got))
	assert.Equal(t, uint(1), got.ID)
	assert.Equal(t, "hello", got.Title)
}

func TestGetJSONMiss(t *testing.T) {
	setupMiniredis(t)

	var got cachedPost
	assert.False(t, GetJSON(context.Background(), "post:404", "post", &got))
}

func TestGetJSONCorruptEntryDropped(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("post:1", "{not json"))

	var got cachedPost
	assert.False(t, GetJSON(ctx, "post:1", "post", &got))
	assert.False(t, mr.Exists("post:1"), "corrupt entry should be deleted")
}

func TestGetJSONNilClient(t *testing.T) {
	SetClient(nil)

	var got cachedPost
	assert.False(t, GetJSON(context.Background(), "post:1", "post", &got))
}

func TestAsideLoadsOnMissAndCaches(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (cachedPost, error) {
		calls++
		return cachedPost{ID: 7, Title: "loaded"}, nil
	}

	got, err := Aside(ctx, "post:7", "post", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, 1, calls)

	// Second call is served from cache.
	got, err = Aside(ctx, "post:7", "post", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", got.Title)
	assert.Equal(t, 1, calls)
}

func TestAsidePropagatesLoadError(t *testing.T) {
	setupMiniredis(t)

	wantErr := errors.New("db down")
	_, err := Aside(context.Background(), "post:9", "post", time.Minute,
		func(context.Context) (cachedPost, error) {
			return cachedPost{}, wantErr
		})
	assert.ErrorIs(t, err, wantErr)
}

func TestInvalidate(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	SetJSON(ctx, "post:1", cachedPost{ID: 1}, time.Minute)
	SetJSON(ctx, "post:2", cachedPost{ID: 2}, time.Minute)

	Invalidate(ctx, "post:1", "post:2")

	assert.False(t, mr.Exists("post:1"))
	assert.False(t, mr.Exists("post:2"))
}

func TestKeyInventory(t *testing.T) {
	assert.Equal(t, "post:42", KeyPost(42))
	assert.Equal(t, "user:profile:7", KeyUserProfile(7))
	assert.Equal(t, "notify:user:3", ChannelUser(3))
	assert.Equal(t, "dm:user:3", ChannelDM(3))
	assert.Equal(t, "presence:last_seen:5", KeyLastSeen(5))
}
