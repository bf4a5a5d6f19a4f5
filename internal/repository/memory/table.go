package memory

import (
	"sort"
	"sync"
)

// table is a mutex-guarded keyed collection. Values go in and come out through
// clone, so callers never hold a reference into the table.
type table[K comparable, T any] struct {
	mu    sync.RWMutex
	rows  map[K]row[T]
	seq   uint64
	clone func(T) T
}

type row[T any] struct {
	seq   uint64
	value T
}

func newTable[K comparable, T any](clone func(T) T) *table[K, T] {
	return &table[K, T]{rows: make(map[K]row[T]), clone: clone}
}

// insert stores value under key unless the key is taken. It returns the stored
// value and whether it was inserted.
func (t *table[K, T]) insert(key K, value T) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.rows[key]; ok {
		return t.clone(existing.value), false
	}
	t.seq++
	t.rows[key] = row[T]{seq: t.seq, value: t.clone(value)}
	return t.clone(value), true
}

func (t *table[K, T]) get(key K) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rows[key]
	if !ok {
		var zero T
		return zero, false
	}
	return t.clone(r.value), true
}

// find returns the first value, in insertion order, accepted by match.
func (t *table[K, T]) find(match func(T) bool) (T, bool) {
	if values := t.filter(match); len(values) > 0 {
		return values[0], true
	}
	var zero T
	return zero, false
}

// replace overwrites an existing key; absent keys are left untouched.
func (t *table[K, T]) replace(key K, value T) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rows[key]
	if !ok {
		var zero T
		return zero, false
	}
	r.value = t.clone(value)
	t.rows[key] = r
	return t.clone(value), true
}

func (t *table[K, T]) remove(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	return true
}

func (t *table[K, T]) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = make(map[K]row[T])
}

// filter returns an owned snapshot of the matching values in insertion order.
// A nil match selects everything.
func (t *table[K, T]) filter(match func(T) bool) []T {
	t.mu.RLock()
	rows := make([]row[T], 0, len(t.rows))
	for _, r := range t.rows {
		if match == nil || match(r.value) {
			rows = append(rows, row[T]{seq: r.seq, value: t.clone(r.value)})
		}
	}
	t.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.value
	}
	return out
}
