package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointsrank/core"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_AddPoints(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	user := core.UserID("test-user")

	upd, err := store.AddPoints(ctx, user, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(0), upd.OldPoints)
	assert.Equal(t, int64(50), upd.NewPoints)
	assert.Equal(t, "Beginner", upd.Rank)

	upd, err = store.AddPoints(ctx, user, 75)
	require.NoError(t, err)
	assert.Equal(t, int64(50), upd.OldPoints)
	assert.Equal(t, int64(125), upd.NewPoints)
	assert.Equal(t, "Apprentice", upd.Rank)

	// deltas may be negative; the result is passed through unclamped
	upd, err = store.AddPoints(ctx, user, -130)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), upd.NewPoints)
}

func TestStore_GetScore(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	user := core.UserID("test-user")

	points, rank, err := store.GetScore(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(0), points)
	assert.Equal(t, "Beginner", rank)

	_, err = store.AddPoints(ctx, user, 350)
	require.NoError(t, err)

	points, rank, err = store.GetScore(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(350), points)
	assert.Equal(t, "Skilled", rank)
}

func TestStore_ActivityNewestFirst(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	user := core.UserID("test-user")

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, reason := range []string{"first", "second", "third"} {
		entry := core.Activity{UserID: user, Points: 25, Reason: reason, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.AppendActivity(ctx, entry))
	}

	entries, err := store.Activity(ctx, user, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].Reason)
	assert.Equal(t, "second", entries[1].Reason)
}

func TestStore_LastLogin(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	user := core.UserID("test-user")

	last, err := store.LastLogin(ctx, user)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.SetLastLogin(ctx, user, now))

	last, err = store.LastLogin(ctx, user)
	require.NoError(t, err)
	assert.True(t, last.Equal(now))
}

func TestStore_Users(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	_, err := store.AddPoints(ctx, "alice", 10)
	require.NoError(t, err)
	_, err = store.AddPoints(ctx, "bob", 20)
	require.NoError(t, err)

	users, err := store.Users(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.UserID{"alice", "bob"}, users)
}

func TestStore_AddPointsRejectsOutOfRangeTotal(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	user := core.UserID("test-user")

	// largest total a Lua double can represent exactly; one more must fail
	require.NoError(t, client.Set(ctx, pointsKey(user), int64(9007199254740991), 0).Err())

	_, err := store.AddPoints(ctx, user, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	// the stored total is untouched after a rejected add
	points, _, err := store.GetScore(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740991), points)
}

func TestStore_Ping(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	require.NoError(t, store.Ping(context.Background()))
}
