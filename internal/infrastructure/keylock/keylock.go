package keylock

import "sync"

// KeyLock serializes work per string key. At most one holder per key at
// a time; different keys proceed in parallel. Locks are created on first
// use and kept for the life of the process, which is acceptable for the
// bounded key space here (companies and memo sections).
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty KeyLock
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for key, blocking until it is free
func (k *KeyLock) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the lock for key
func (k *KeyLock) Unlock(key string) {
	k.get(key).Unlock()
}

// Do runs fn while holding the lock for key
func (k *KeyLock) Do(key string, fn func() error) error {
	m := k.get(key)
	m.Lock()
	defer m.Unlock()
	return fn()
}

func (k *KeyLock) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
