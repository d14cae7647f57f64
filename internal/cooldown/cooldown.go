// Package cooldown suppresses repeat alerts per contract within a
// configurable interval. The gate is accessed only from the trending
// loop, never from the ingress path, so it needs no locking per spec —
// but we add a mutex anyway since nothing in the orchestrator design
// guarantees that will remain true, and the cost is negligible.
package cooldown

import (
	"sync"
	"time"
)

// Gate maps contract -> expiry. Restart resets the gate; this is an
// accepted trade-off (worst case one duplicate alert per contract per
// restart), not a correctness bug.
type Gate struct {
	mu       sync.Mutex
	cooldown time.Duration
	expiry   map[string]time.Time
	now      func() time.Time
}

// New builds a cooldown gate with the given per-contract cooldown
// duration.
func New(cooldown time.Duration) *Gate {
	return &Gate{
		cooldown: cooldown,
		expiry:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// Admit returns true iff contract has no active cooldown entry. On true,
// it resets the entry's expiry to now+cooldown. On false it does nothing
// — the caller must not alert.
func (g *Gate) Admit(contract string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if exp, ok := g.expiry[contract]; ok && exp.After(now) {
		return false
	}
	g.expiry[contract] = now.Add(g.cooldown)
	return true
}

// Prune removes entries whose cooldown has elapsed. Call after each
// trending scan.
func (g *Gate) Prune() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for contract, exp := range g.expiry {
		if !exp.After(now) {
			delete(g.expiry, contract)
		}
	}
}

// Len reports the current size of the cooldown map, for the size gauge.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.expiry)
}
