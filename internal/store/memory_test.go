package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetIfAbsent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	won, err := m.SetIfAbsent(ctx, "k", "a", 0)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = m.SetIfAbsent(ctx, "k", "b", 0)
	require.NoError(t, err)
	assert.False(t, won)

	val, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", val, "losing writer must not overwrite")
}

func TestMemorySetIfAbsentExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	won, err := m.SetIfAbsent(ctx, "k", "a", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, won)

	time.Sleep(20 * time.Millisecond)

	won, err = m.SetIfAbsent(ctx, "k", "b", 0)
	require.NoError(t, err)
	assert.True(t, won, "expired key must be claimable again")
}

func TestMemorySetIfAbsentConcurrent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	const attempts = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := m.SetIfAbsent(ctx, "race", "x", 0)
			assert.NoError(t, err)
			if won {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestMemoryIncrBy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	n, err := m.IncrBy(ctx, "counter", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n, "absent counter starts at zero")

	n, err = m.IncrBy(ctx, "counter", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(21), n)

	val, err := m.GetInt64(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(21), val)
}

func TestMemoryGetInt64Absent(t *testing.T) {
	m := NewMemory()

	val, err := m.GetInt64(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), val)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v"))
	require.NoError(t, m.Delete(ctx, "k"))

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
