package data

import (
	"maps"
	"strings"
	"sync"
)

// KeySeparator separates the levels of a dot key.
const KeySeparator = "."

// Repository is a tree of values addressed by dot keys: "db.default.host".
type Repository struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewRepository creates a repository holding data.
func NewRepository(data map[string]any) *Repository {
	if data == nil {
		data = make(map[string]any)
	}
	return &Repository{data: data}
}

// Get returns the value at key, or fallback when any level is missing. An
// empty key returns the whole tree.
func (r *Repository) Get(key string, fallback any) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key == "" {
		return maps.Clone(r.data)
	}
	if v, ok := lookup(r.data, key); ok {
		return v
	}
	return fallback
}

// GetString returns the value at key when it is a string.
func (r *Repository) GetString(key, fallback string) string {
	if s, ok := r.Get(key, nil).(string); ok {
		return s
	}
	return fallback
}

// Has reports whether key is set.
func (r *Repository) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := lookup(r.data, key)
	return ok
}

// Set stores value at key, creating the intermediate levels.
func (r *Repository) Set(key string, value any) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := strings.Split(key, KeySeparator)
	node := r.data
	for _, p := range parts[:len(parts)-1] {
		next, ok := node[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[p] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
	return r
}

// SetMany stores every key of values.
func (r *Repository) SetMany(values map[string]any) *Repository {
	for k, v := range values {
		r.Set(k, v)
	}
	return r
}

// Delete removes key.
func (r *Repository) Delete(key string) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := strings.Split(key, KeySeparator)
	node := r.data
	for _, p := range parts[:len(parts)-1] {
		next, ok := node[p].(map[string]any)
		if !ok {
			return r
		}
		node = next
	}
	delete(node, parts[len(parts)-1])
	return r
}

// Merge copies the top-level keys of values over the current ones.
func (r *Repository) Merge(values map[string]any) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps.Copy(r.data, values)
	return r
}

// All returns a shallow copy of the tree.
func (r *Repository) All() map[string]any {
	return r.Get("", nil).(map[string]any)
}

func lookup(data map[string]any, key string) (any, bool) {
	var node any = data
	for _, p := range strings.Split(key, KeySeparator) {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[p]; !ok {
			return nil, false
		}
	}
	return node, true
}
