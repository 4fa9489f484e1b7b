package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoadsOnceAndCaches(t *testing.T) {
	t.Parallel()

	c, err := NewLoaderCache[string](8)
	require.NoError(t, err)

	var loads atomic.Int64
	load := func(ctx context.Context, key string) (string, error) {
		loads.Add(1)
		return "value-" + key, nil
	}

	for range 3 {
		v, err := c.Get(context.Background(), "a", load)
		require.NoError(t, err)
		assert.Equal(t, "value-a", v)
	}

	assert.Equal(t, int64(1), loads.Load())
	assert.Equal(t, 1, c.Len())
}

func TestGetDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	c, err := NewLoaderCache[string](8)
	require.NoError(t, err)

	var loads atomic.Int64
	boom := errors.New("upstream down")
	load := func(ctx context.Context, key string) (string, error) {
		if loads.Add(1) == 1 {
			return "", boom
		}
		return "recovered", nil
	}

	_, err = c.Get(context.Background(), "a", load)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	v, err := c.Get(context.Background(), "a", load)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, int64(2), loads.Load())
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	t.Parallel()

	c, err := NewLoaderCache[int](8)
	require.NoError(t, err)

	var loads atomic.Int64
	release := make(chan struct{})
	load := func(ctx context.Context, key string) (int, error) {
		loads.Add(1)
		<-release
		return 42, nil
	}

	const callers = 10
	results := make([]int, callers)
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			v, getErr := c.Get(context.Background(), "answer", load)
			assert.NoError(t, getErr)
			results[i] = v
		}()
	}

	for range callers {
		<-started
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), loads.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	t.Parallel()

	c, err := NewLoaderCache[string](8)
	require.NoError(t, err)

	var loads atomic.Int64
	load := func(ctx context.Context, key string) (string, error) {
		loads.Add(1)
		return "v", nil
	}

	_, _ = c.Get(context.Background(), "a", load)
	c.Invalidate("a")
	_, _ = c.Get(context.Background(), "a", load)

	assert.Equal(t, int64(2), loads.Load())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c, err := NewLoaderCache[string](2)
	require.NoError(t, err)

	load := func(ctx context.Context, key string) (string, error) {
		return key, nil
	}

	_, _ = c.Get(context.Background(), "a", load)
	_, _ = c.Get(context.Background(), "b", load)
	_, _ = c.Get(context.Background(), "c", load)

	assert.Equal(t, 2, c.Len())
}
