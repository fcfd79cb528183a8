package app

import "sync"

// actionLocks hands out one mutex per key, dropping entries once the last
// holder releases. Approve and reject take the lock for their action so two
// in-flight transitions on the same action cannot both reach the gateway.
type actionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newActionLocks() *actionLocks {
	return &actionLocks{entries: make(map[string]*lockEntry)}
}

func (l *actionLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
