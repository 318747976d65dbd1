package state

import "sync"

// memoLimit bounds the parameters cached within one generation.
const memoLimit = 256

// memo caches one derived value per parameter. An entry is valid while the
// generation of the collection it was computed from is unchanged. A new
// generation drops every older entry.
type memo[K comparable, V any] struct {
	mu       sync.Mutex
	gen      uint64
	entries  map[K]memoEntry[V]
	computes int
}

type memoEntry[V any] struct {
	gen   uint64
	value V
}

func newMemo[K comparable, V any]() *memo[K, V] {
	return &memo[K, V]{entries: make(map[K]memoEntry[V])}
}

func (m *memo[K, V]) get(key K, gen uint64, compute func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && e.gen == gen {
		return e.value
	}
	if gen != m.gen || len(m.entries) >= memoLimit {
		clear(m.entries)
		m.gen = gen
	}
	v := compute()
	m.computes++
	m.entries[key] = memoEntry[V]{gen: gen, value: v}
	return v
}

func (m *memo[K, V]) computeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computes
}

func (m *memo[K, V]) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
