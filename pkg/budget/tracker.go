// Package budget enforces the session spending cap. A Tracker is the single
// shared mutable resource between concurrent routing decisions; every
// check-then-charge sequence goes through a reservation so two concurrent
// callers cannot both pass the affordability check and jointly overshoot
// the limit.
package budget

import (
	"sync"
)

// costEpsilon absorbs float dust so a session that lands exactly on the
// limit is still affordable.
const costEpsilon = 1e-9

// Tracker accumulates session cost against a fixed limit.
// Spent is monotonically non-decreasing for the life of the tracker; the
// only reset is constructing a new tracker at a session boundary.
type Tracker struct {
	mu       sync.Mutex
	limit    float64
	spent    float64
	reserved float64
}

// NewTracker creates a tracker with the given session limit.
func NewTracker(limit float64) *Tracker {
	return &Tracker{limit: limit}
}

// CanAfford reports whether a call of the given cost fits within the limit,
// counting outstanding reservations.
func (t *Tracker) CanAfford(cost float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fits(cost)
}

// Reserve atomically checks affordability and holds the amount. A true
// return must be balanced by exactly one Commit or Release.
func (t *Tracker) Reserve(cost float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.fits(cost) {
		return false
	}
	t.reserved += cost
	return true
}

// Commit settles a reservation, converting it into spend. Only called after
// the reserved invocation delivered a result.
func (t *Tracker) Commit(cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reserved -= cost
	if t.reserved < 0 {
		t.reserved = 0
	}
	t.spent += cost
}

// Release abandons a reservation without charging. Used when the reserved
// invocation failed and delivered no benefit.
func (t *Tracker) Release(cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reserved -= cost
	if t.reserved < 0 {
		t.reserved = 0
	}
}

// Spent returns the total charged so far.
func (t *Tracker) Spent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spent
}

// Remaining returns the unspent, unreserved portion of the limit.
func (t *Tracker) Remaining() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	remaining := t.limit - t.spent - t.reserved
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Limit returns the session limit.
func (t *Tracker) Limit() float64 {
	return t.limit
}

func (t *Tracker) fits(cost float64) bool {
	return t.spent+t.reserved+cost <= t.limit+costEpsilon
}
