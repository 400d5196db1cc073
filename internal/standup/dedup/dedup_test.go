package dedup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, time.Minute), mr
}

func TestSeenCollapsesDuplicates(t *testing.T) {
	ctx := context.Background()
	store, _ := testStore(t)

	dup, err := store.Seen(ctx, "Ev001")
	require.NoError(t, err)
	require.False(t, dup, "first delivery must not be a duplicate")

	dup, err = store.Seen(ctx, "Ev001")
	require.NoError(t, err)
	require.True(t, dup, "second delivery must be collapsed")

	dup, err = store.Seen(ctx, "Ev002")
	require.NoError(t, err)
	require.False(t, dup, "distinct identifiers are independent")
}

func TestSeenExactlyOneWinnerUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	store, _ := testStore(t)

	const workers = 16

	var wg sync.WaitGroup
	firsts := make(chan bool, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dup, err := store.Seen(ctx, "Ev-race")
			require.NoError(t, err)
			if !dup {
				firsts <- true
			}
		}()
	}
	wg.Wait()
	close(firsts)

	require.Len(t, firsts, 1, "exactly one delivery may win the insert")
}

func TestSeenForgetsAfterWindow(t *testing.T) {
	ctx := context.Background()
	store, mr := testStore(t)

	dup, err := store.Seen(ctx, "Ev003")
	require.NoError(t, err)
	require.False(t, dup)

	// Past the retention window the identifier is evicted; a late replay
	// is treated as new, which is the documented bound of the registry.
	mr.FastForward(2 * time.Minute)

	dup, err = store.Seen(ctx, "Ev003")
	require.NoError(t, err)
	require.False(t, dup)
}
