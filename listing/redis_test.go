package listing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/spacetraveling/posts"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	s := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", time.Minute)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_PutGet(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()

	want := State{Posts: []posts.Summary{{UID: "p1", Title: "One"}}, NextPage: "C1"}
	require.NoError(t, s.Put(ctx, "abc", want))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "abc", State{NextPage: "C1"}))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_Lock(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	unlock, err := s.Lock(ctx, "abc")
	require.NoError(t, err)

	_, err = s.Lock(ctx, "abc")
	assert.ErrorIs(t, err, ErrLoadInFlight)

	unlock()
	assert.False(t, mr.Exists("test:listing:abc:lock"))

	unlock2, err := s.Lock(ctx, "abc")
	require.NoError(t, err)
	unlock2()
}

func TestRedisStore_WithManager(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()
	m := NewManager(s, &fakeSource{})

	id, err := m.Start(ctx, State{Posts: []posts.Summary{{UID: "p1"}}})
	require.NoError(t, err)

	st, err := m.LoadMore(ctx, id)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, "p1", st.Posts[0].UID)
}
