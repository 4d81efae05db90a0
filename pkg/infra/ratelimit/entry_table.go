package ratelimit

import (
	"context"
	"sync"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
)

// entry is the per-key state of a local store. Its own mutex serialises the
// read-modify-write of one key without blocking other keys.
type entry[S any] struct {
	mu        sync.Mutex
	state     S
	expiresAt time.Time
	evicted   bool
}

type entryTable[S any] struct {
	mu      sync.Mutex
	entries map[domain.LimitKey]*entry[S]
}

func newEntryTable[S any]() *entryTable[S] {
	return &entryTable[S]{entries: make(map[domain.LimitKey]*entry[S])}
}

// update runs fn with the key's entry locked, creating the entry on first use.
// An entry evicted between lookup and lock is looked up again, so an update is
// never applied to state that is no longer reachable.
func (t *entryTable[S]) update(key domain.LimitKey, fn func(e *entry[S])) {
	for {
		t.mu.Lock()
		e, ok := t.entries[key]
		if !ok {
			e = &entry[S]{}
			t.entries[key] = e
		}
		t.mu.Unlock()

		e.mu.Lock()
		if e.evicted {
			e.mu.Unlock()
			continue
		}
		fn(e)
		e.mu.Unlock()
		return
	}
}

// sweep drops entries whose own window has lapsed. Entries busy with an
// update are skipped and picked up by a later sweep.
func (t *entryTable[S]) sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, e := range t.entries {
		if !e.mu.TryLock() {
			continue
		}
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			e.evicted = true
			delete(t.entries, key)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

func (t *entryTable[S]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

type sweeper interface {
	Sweep() int
}

// startJanitor sweeps s every interval until ctx is done.
func startJanitor(ctx context.Context, s sweeper, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
