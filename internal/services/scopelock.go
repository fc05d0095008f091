package services

import "sync"

// ScopeLocks serializes mutating operations within one chat scope. A restore
// must not interleave its delete+reinsert phase with a concurrent submit for
// the same scope; operations on different scopes proceed independently.
type ScopeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewScopeLocks() *ScopeLocks {
	return &ScopeLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given scope and returns its unlock func.
// Lock entries are never removed; the set of active scopes is small.
func (l *ScopeLocks) Lock(scope string) func() {
	l.mu.Lock()
	m, ok := l.locks[scope]
	if !ok {
		m = &sync.Mutex{}
		l.locks[scope] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
