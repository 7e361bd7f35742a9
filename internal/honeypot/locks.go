package honeypot

import "sync"

// sessionLocks serializes message processing per session identifier so one
// conversation always observes a linear history, while different sessions
// proceed in parallel. Entries are dropped when the registry evicts the
// session; eviction never targets an in-flight session, so a lock is never
// forgotten while held by an active request for that session.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) acquire(id string) (release func()) {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (l *sessionLocks) forget(ids []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		delete(l.locks, id)
	}
}
