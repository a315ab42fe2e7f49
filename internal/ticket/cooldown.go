package ticket

import (
	"sync"
	"time"
)

// CooldownGuard gates ticket creation per (guild, user). It is purely
// in-memory and process-local: an optimization layer over the
// authoritative store, initialized empty at startup and never persisted.
type CooldownGuard struct {
	mu     sync.Mutex
	window time.Duration
	last   map[cooldownKey]time.Time
}

type cooldownKey struct {
	guildID string
	userID  string
}

// NewCooldownGuard creates a guard with the given minimum interval.
func NewCooldownGuard(window time.Duration) *CooldownGuard {
	return &CooldownGuard{
		window: window,
		last:   make(map[cooldownKey]time.Time),
	}
}

// CheckAndRecord allows or denies a creation attempt. On allow the
// timestamp is recorded immediately, before the rest of creation
// proceeds, so a slow downstream failure cannot admit a burst of retries
// within the window. On deny it returns the remaining wait.
func (g *CooldownGuard) CheckAndRecord(guildID, userID string, now time.Time) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := cooldownKey{guildID: guildID, userID: userID}
	if last, ok := g.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < g.window {
			return g.window - elapsed, false
		}
	}
	g.last[key] = now
	return 0, true
}
