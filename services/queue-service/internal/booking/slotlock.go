package booking

import "sync"

// slotLocks serializes the guard's read-then-insert sequence per slot key so
// unrelated bookings stay concurrent. Entries are reference-counted and
// removed when the last holder releases.
type slotLocks struct {
	mu   sync.Mutex
	held map[string]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{held: map[string]*slotLock{}}
}

func (l *slotLocks) acquire(key string) (release func()) {
	l.mu.Lock()
	sl := l.held[key]
	if sl == nil {
		sl = &slotLock{}
		l.held[key] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()

	return func() {
		sl.mu.Unlock()

		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.held, key)
		}
		l.mu.Unlock()
	}
}
