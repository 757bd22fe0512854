package referral

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communitybot/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAttributeOncePerInvitee(t *testing.T) {
	tracker := New(store.NewMemory(), testLogger())
	ctx := context.Background()

	credited, err := tracker.Attribute(ctx, 100, 7)
	require.NoError(t, err)
	assert.True(t, credited)

	invites, err := tracker.Invites(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), invites)

	// Replayed deep link.
	credited, err = tracker.Attribute(ctx, 100, 7)
	require.NoError(t, err)
	assert.False(t, credited)

	// A different inviter claiming the same invitee.
	credited, err = tracker.Attribute(ctx, 200, 7)
	require.NoError(t, err)
	assert.False(t, credited)

	invites, err = tracker.Invites(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), invites)

	invites, err = tracker.Invites(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(0), invites)
}

func TestAttributeSelfReferral(t *testing.T) {
	tracker := New(store.NewMemory(), testLogger())
	ctx := context.Background()

	credited, err := tracker.Attribute(ctx, 7, 7)
	require.NoError(t, err)
	assert.False(t, credited)

	invites, err := tracker.Invites(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), invites)

	// A self-referral must not consume the invitee's attribution slot.
	credited, err = tracker.Attribute(ctx, 100, 7)
	require.NoError(t, err)
	assert.True(t, credited)
}

func TestAttributeInvalidInviter(t *testing.T) {
	tracker := New(store.NewMemory(), testLogger())
	ctx := context.Background()

	credited, err := tracker.Attribute(ctx, 0, 7)
	require.NoError(t, err)
	assert.False(t, credited)

	credited, err = tracker.Attribute(ctx, -5, 7)
	require.NoError(t, err)
	assert.False(t, credited)
}

func TestAttributeConcurrentSingleCredit(t *testing.T) {
	tracker := New(store.NewMemory(), testLogger())
	ctx := context.Background()

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	credits := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			credited, err := tracker.Attribute(ctx, 100, 7)
			assert.NoError(t, err)
			if credited {
				mu.Lock()
				credits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, credits)

	invites, err := tracker.Invites(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), invites)
}

func TestAttributeDistinctInvitees(t *testing.T) {
	tracker := New(store.NewMemory(), testLogger())
	ctx := context.Background()

	for inviteeId := int64(1); inviteeId <= 3; inviteeId++ {
		credited, err := tracker.Attribute(ctx, 100, inviteeId+10)
		require.NoError(t, err)
		assert.True(t, credited)
	}

	invites, err := tracker.Invites(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(3), invites)
}
