package cache

import (
	"testing"
	"time"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
)

func TestTTLCacheHitAndMiss(t *testing.T) {
	c := NewTTL(5 * time.Minute)
	p := &profile.Profile{ClinicianID: "c1", Subspecialty: "cardiology"}

	if _, ok := c.Get("c1", "cardiology"); ok {
		t.Error("hit on empty cache")
	}

	c.Set("c1", "cardiology", p)
	got, ok := c.Get("c1", "cardiology")
	if !ok || got != p {
		t.Errorf("Get = (%v, %v), want cached profile", got, ok)
	}

	// Same clinician, different subspecialty is a separate entry.
	if _, ok := c.Get("c1", "endocrinology"); ok {
		t.Error("hit for wrong subspecialty")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTL(5 * time.Minute)
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("c1", "cardiology", &profile.Profile{ClinicianID: "c1"})

	now = now.Add(4 * time.Minute)
	if _, ok := c.Get("c1", "cardiology"); !ok {
		t.Error("entry expired before TTL")
	}

	now = now.Add(time.Minute)
	if _, ok := c.Get("c1", "cardiology"); ok {
		t.Error("entry survived past TTL")
	}
}

func TestTTLCacheInvalidate(t *testing.T) {
	c := NewTTL(5 * time.Minute)
	c.Set("c1", "cardiology", &profile.Profile{ClinicianID: "c1"})
	c.Set("c2", "cardiology", &profile.Profile{ClinicianID: "c2"})

	c.Invalidate("c1", "cardiology")

	if _, ok := c.Get("c1", "cardiology"); ok {
		t.Error("invalidated entry still cached")
	}
	if _, ok := c.Get("c2", "cardiology"); !ok {
		t.Error("unrelated entry evicted")
	}
}
