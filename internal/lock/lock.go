// Package lock serializes mutations of a single group.
//
// Membership changes are check-then-act sequences (load membership, authorize,
// write). Holding the group's lock across the sequence keeps two concurrent
// requests from both passing their checks against the same state.
package lock

import (
	"context"
	"sync"
)

// Locker acquires exclusive locks by key.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The returned function releases the lock and is safe to call once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// GroupKey is the lock key for a group.
func GroupKey(groupID string) string {
	return "group:" + groupID
}

// KeyedMutex is an in-process Locker. Entries are dropped once no caller holds or awaits them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	// ch has capacity 1; holding the lock means having sent into it.
	ch      chan struct{}
	waiters int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

var _ Locker = (*KeyedMutex)(nil)

// Lock acquires the lock for key.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.waiters++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(key, e, true) })
	}, nil
}

func (k *KeyedMutex) release(key string, e *entry, held bool) {
	if held {
		<-e.ch
	}
	k.mu.Lock()
	e.waiters--
	if e.waiters == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

// Len returns the number of keys currently held or awaited.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
