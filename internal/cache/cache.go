// Package cache provides the short-TTL read cache in front of the profile
// store. It is injected as a collaborator so tests can substitute a
// deterministic fake and multi-instance deployments can choose a shared keyed
// store instead of a process-local map. A cached profile is a non-owning read
// view: it may be up to TTL stale and is never authoritative.
package cache

import (
	"sync"
	"time"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
)

// ProfileCache is the read-cache capability handed to profile readers and
// writers. Writers must persist to the store before calling Invalidate or Set.
type ProfileCache interface {
	Get(clinicianID, subspecialty string) (*profile.Profile, bool)
	Set(clinicianID, subspecialty string, p *profile.Profile)
	Invalidate(clinicianID, subspecialty string)
}

type entry struct {
	profile   *profile.Profile
	fetchedAt time.Time
}

// TTLCache is the process-local ProfileCache implementation.
type TTLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func NewTTL(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func key(clinicianID, subspecialty string) string {
	return clinicianID + "|" + subspecialty
}

func (c *TTLCache) Get(clinicianID, subspecialty string) (*profile.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key(clinicianID, subspecialty)]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		delete(c.entries, key(clinicianID, subspecialty))
		return nil, false
	}
	return e.profile, true
}

func (c *TTLCache) Set(clinicianID, subspecialty string, p *profile.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key(clinicianID, subspecialty)] = entry{profile: p, fetchedAt: c.now()}
}

func (c *TTLCache) Invalidate(clinicianID, subspecialty string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key(clinicianID, subspecialty))
}
