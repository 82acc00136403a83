package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rs, _ := newTestStore(t)

	sess := Session{
		ID:        "sid-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, rs.Create(ctx, sess))

	got, err := rs.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, sess.UserID, got.UserID)
	require.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestRedisStoreGetUnknown(t *testing.T) {
	rs, _ := newTestStore(t)

	_, err := rs.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	ctx := context.Background()
	rs, _ := newTestStore(t)

	sess := Session{ID: "sid-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, rs.Create(ctx, sess))
	require.NoError(t, rs.Delete(ctx, "sid-1"))

	_, err := rs.Get(ctx, "sid-1")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an already-gone session is not an error.
	require.NoError(t, rs.Delete(ctx, "sid-1"))
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	rs, mr := newTestStore(t)

	sess := Session{ID: "sid-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, rs.Create(ctx, sess))

	mr.FastForward(2 * time.Minute)

	_, err := rs.Get(ctx, "sid-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRejectsInvalidSessions(t *testing.T) {
	ctx := context.Background()
	rs, _ := newTestStore(t)

	require.Error(t, rs.Create(ctx, Session{UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.Error(t, rs.Create(ctx, Session{ID: "sid-1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.Error(t, rs.Create(ctx, Session{ID: "sid-1", UserID: "user-1", ExpiresAt: time.Now().Add(-time.Hour)}))
}
