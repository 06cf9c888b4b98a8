package gallery

import (
	"sync"

	"evalgallery/internal/models"
)

// scopeLocks hands out one RWMutex per scope. Entries are created on first
// use and never removed, so two callers can never hold different locks for
// the same scope.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: map[string]*sync.RWMutex{}}
}

func (l *scopeLocks) get(scope models.Scope) *sync.RWMutex {
	key := scope.Key()
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[key] = lock
	}
	return lock
}

// lock takes the write lock for scope and returns its release func.
func (l *scopeLocks) lock(scope models.Scope) func() {
	lock := l.get(scope)
	lock.Lock()
	return lock.Unlock
}

// rlock takes the read lock for scope and returns its release func.
func (l *scopeLocks) rlock(scope models.Scope) func() {
	lock := l.get(scope)
	lock.RLock()
	return lock.RUnlock
}
