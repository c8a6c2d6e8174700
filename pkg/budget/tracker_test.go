package budget

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveCommitAtExactLimit(t *testing.T) {
	tracker := NewTracker(1.00)

	for i := 0; i < 3; i++ {
		require.True(t, tracker.Reserve(0.10), "reserve %d", i)
		tracker.Commit(0.10)
	}
	assert.InDelta(t, 0.30, tracker.Spent(), 1e-9)

	require.True(t, tracker.Reserve(0.70), "final call lands exactly on the limit")
	tracker.Commit(0.70)
	assert.InDelta(t, 1.00, tracker.Spent(), 1e-9)

	assert.False(t, tracker.Reserve(0.001), "any further nonzero cost must be refused")
	assert.InDelta(t, 1.00, tracker.Spent(), 1e-9)
}

func TestReleaseDoesNotCharge(t *testing.T) {
	tracker := NewTracker(0.50)

	require.True(t, tracker.Reserve(0.30))
	tracker.Release(0.30)

	assert.Zero(t, tracker.Spent())
	assert.InDelta(t, 0.50, tracker.Remaining(), 1e-9)
	assert.True(t, tracker.Reserve(0.50), "released funds are available again")
}

func TestReservationBlocksConcurrentOvershoot(t *testing.T) {
	tracker := NewTracker(0.10)

	require.True(t, tracker.Reserve(0.10))
	assert.False(t, tracker.CanAfford(0.10), "held reservation counts against the limit")
	assert.False(t, tracker.Reserve(0.10))
}

func TestConcurrentReservesNeverExceedLimit(t *testing.T) {
	const (
		workers = 50
		cost    = 0.10
		limit   = 1.00
	)
	tracker := NewTracker(limit)

	var wg sync.WaitGroup
	granted := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.Reserve(cost) {
				tracker.Commit(cost)
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	var count int
	for range granted {
		count++
	}
	assert.Equal(t, 10, count, "exactly limit/cost reservations may succeed")
	assert.LessOrEqual(t, tracker.Spent(), limit+1e-9)
}

func TestRemainingFloorsAtZero(t *testing.T) {
	tracker := NewTracker(0.05)
	require.True(t, tracker.Reserve(0.05))
	assert.Zero(t, tracker.Remaining())
}
