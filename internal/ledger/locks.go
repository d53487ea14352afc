package ledger

import (
	"context"
	"sort"
	"sync"
)

type resourceKind int

// Lock order: bikes before stations, then ascending id.
const (
	bikeResource resourceKind = iota
	stationResource
)

type resourceKey struct {
	kind resourceKind
	id   int64
}

func bikeKey(id int64) resourceKey    { return resourceKey{kind: bikeResource, id: id} }
func stationKey(id int64) resourceKey { return resourceKey{kind: stationResource, id: id} }

func (k resourceKey) less(other resourceKey) bool {
	if k.kind != other.kind {
		return k.kind < other.kind
	}
	return k.id < other.id
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// lockManager hands out one mutex per resource. Entries are reference
// counted and dropped once nobody holds or waits for them.
type lockManager struct {
	mu    sync.Mutex
	locks map[resourceKey]*lockEntry
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[resourceKey]*lockEntry)}
}

func (m *lockManager) entry(key resourceKey) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.locks[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	return e
}

func (m *lockManager) drop(key resourceKey, e *lockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}

func (m *lockManager) lock(ctx context.Context, key resourceKey) error {
	e := m.entry(key)
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.drop(key, e)
		return ctx.Err()
	}
}

func (m *lockManager) unlock(key resourceKey) {
	m.mu.Lock()
	e := m.locks[key]
	m.mu.Unlock()
	<-e.sem
	m.drop(key, e)
}

// acquire locks every key in global order and returns a func that releases
// them. On error nothing is held.
func (m *lockManager) acquire(ctx context.Context, keys ...resourceKey) (func(), error) {
	ordered := make([]resourceKey, 0, len(keys))
	seen := make(map[resourceKey]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			ordered = append(ordered, k)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].less(ordered[j]) })

	held := make([]resourceKey, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.unlock(held[i])
		}
	}

	for _, k := range ordered {
		if err := m.lock(ctx, k); err != nil {
			release()
			return nil, err
		}
		held = append(held, k)
	}
	return release, nil
}

// size reports how many resources currently have holders or waiters.
func (m *lockManager) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
