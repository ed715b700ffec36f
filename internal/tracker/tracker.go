package tracker

import (
	"sort"
	"sync"
)

// Tracker remembers which alert identifiers were already processed during
// this run. It only ever grows; entries are dropped on process restart
// unless a SeenStore reseeds it at startup.
type Tracker struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// New builds an empty tracker.
func New() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Seed marks a batch of identifiers as already processed. Used to restore
// state loaded from a durable store at startup.
func (t *Tracker) Seed(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			t.seen[id] = struct{}{}
		}
	}
}

// IsNew reports whether the identifier has not been recorded yet.
func (t *Tracker) IsNew(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.seen[id]
	return !ok
}

// Record marks an identifier as processed. Idempotent.
func (t *Tracker) Record(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[id] = struct{}{}
}

// Len returns the number of recorded identifiers.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seen)
}

// Snapshot returns a sorted copy of all recorded identifiers.
func (t *Tracker) Snapshot() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.seen))
	for id := range t.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
