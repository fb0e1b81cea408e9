package store

import (
	"strings"
	"sync"
)

// tableLocks serializes writers per table name while letting writes to
// different tables proceed in parallel.
type tableLocks struct {
	mu    sync.Mutex
	locks map[string]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[string]*tableLock)}
}

func (l *tableLocks) lock(name string) func() {
	key := strings.ToLower(name)

	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &tableLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
