package cache

import (
	"slices"
	"sync"
)

// Registry maps ids to the layers added to a map, so they can be looked up
// when input events name them.
type Registry[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// NewRegistry creates an empty Registry
func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{
		items: make(map[string]V),
	}
}

// Get retrieves an item by id
func (r *Registry[V]) Get(id string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	return v, ok
}

// Set stores an item, replacing any previous one with the same id
func (r *Registry[V]) Set(id string, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = v
}

// Delete removes an item and returns it
func (r *Registry[V]) Delete(id string) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	delete(r.items, id)
	return v, ok
}

// Len returns the number of items
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Keys returns all ids in sorted order
func (r *Registry[V]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Each calls fn for every item in id order
func (r *Registry[V]) Each(fn func(id string, v V)) {
	for _, id := range r.Keys() {
		if v, ok := r.Get(id); ok {
			fn(id, v)
		}
	}
}

// Reset clears all items
func (r *Registry[V]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]V)
}
