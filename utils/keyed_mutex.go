package utils

import "sync"

// KeyedMutex serializes work per key. It backs the per-project critical
// section: all state-mutating commands of one project run one at a time,
// commands on different projects run freely in parallel.
type KeyedMutex[K comparable] struct {
	mutexes sync.Map
}

func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{}
}

func (k *KeyedMutex[K]) Lock(key K) func() {
	value, _ := k.mutexes.LoadOrStore(key, &sync.Mutex{})
	mtx := value.(*sync.Mutex)
	mtx.Lock()

	return mtx.Unlock
}
