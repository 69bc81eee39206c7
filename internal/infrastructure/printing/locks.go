package printing

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// addressLocks serializes jobs per transport address. Entries are reference
// counted and removed once no job holds or waits on them.
type addressLocks struct {
	mu      sync.Mutex
	entries map[string]*addressLock
}

type addressLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newAddressLocks() *addressLocks {
	return &addressLocks{entries: make(map[string]*addressLock)}
}

// acquire blocks until key is free or ctx ends
func (l *addressLocks) acquire(ctx context.Context, key string) (release func(), err error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &addressLock{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.unref(key, e)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.unref(key, e)
		})
	}, nil
}

func (l *addressLocks) unref(key string, e *addressLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *addressLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
