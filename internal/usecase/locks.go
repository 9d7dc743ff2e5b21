package usecase

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// challengeLocks hands out one RWMutex per challenge id. Entries are dropped
// once no goroutine holds or waits on them.
type challengeLocks struct {
	mu    sync.Mutex
	locks map[common.Hash]*lockEntry
}

type lockEntry struct {
	mu   sync.RWMutex
	refs int
}

func newChallengeLocks() *challengeLocks {
	return &challengeLocks{locks: make(map[common.Hash]*lockEntry)}
}

// Lock takes the exclusive lock for id and returns its release func.
func (l *challengeLocks) Lock(id common.Hash) func() {
	e := l.acquire(id)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.release(id)
	}
}

// RLock takes the shared lock for id and returns its release func.
func (l *challengeLocks) RLock(id common.Hash) func() {
	e := l.acquire(id)
	e.mu.RLock()
	return func() {
		e.mu.RUnlock()
		l.release(id)
	}
}

func (l *challengeLocks) acquire(id common.Hash) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	return e
}

func (l *challengeLocks) release(id common.Hash) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.locks[id]
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
}
