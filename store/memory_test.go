package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	st := &State{Attempts: []int64{1, 2, 3}, CooldownUntil: 9}
	require.NoError(t, ms.Set(ctx, "k", st, time.Minute))

	got, err := ms.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, got.Attempts)
	require.Equal(t, int64(9), got.CooldownUntil)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()

	_, err := ms.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTTL(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	require.NoError(t, ms.Set(ctx, "k", &State{}, 50*time.Millisecond))

	ok, err := ms.Exists(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok, "key should exist immediately after Set")

	time.Sleep(80 * time.Millisecond)

	ok, err = ms.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok, "key should have expired after TTL")

	_, err = ms.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	require.NoError(t, ms.Set(ctx, "k", &State{}, time.Minute))
	require.NoError(t, ms.Delete(ctx, "k"))

	ok, err := ms.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting an absent key is not an error
	require.NoError(t, ms.Delete(ctx, "k"))
}

func TestMemoryStoreCopiesState(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	st := &State{Attempts: []int64{1}}
	require.NoError(t, ms.Set(ctx, "k", st, time.Minute))

	// Mutating the state we passed in must not change the stored copy
	st.Attempts[0] = 99

	got, err := ms.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Attempts[0])

	// Nor may mutating what Get returned
	got.Attempts[0] = 42

	again, err := ms.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, int64(1), again.Attempts[0])
}
