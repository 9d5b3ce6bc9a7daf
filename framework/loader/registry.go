package loader

import (
	"strings"
	"sync"

	"github.com/km-arc/go-fuel/framework/container"
)

// Source is what a package file provides: a constructor and an optional
// initializer that runs once after the class is first loaded.
type Source struct {
	New  container.Constructor
	Init func()
}

// Registry is the runtime class table. Classnames are case-insensitive.
type Registry struct {
	mu          sync.RWMutex
	classes     map[string]Source
	aliases     map[string]string
	initialized map[string]bool

	// autoload is called on a miss while resolving an alias target.
	autoload func(class string) bool
}

// NewRegistry creates an empty class table.
func NewRegistry() *Registry {
	return &Registry{
		classes:     make(map[string]Source),
		aliases:     make(map[string]string),
		initialized: make(map[string]bool),
	}
}

// Define registers the source of class.
func (r *Registry) Define(class string, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[strings.ToLower(class)] = src
}

// Alias makes alias resolve to actual. The actual class is autoloaded when
// needed; false means it could not be found.
func (r *Registry) Alias(actual, alias string) bool {
	if _, ok := r.Lookup(actual); !ok {
		if r.autoload == nil || !r.autoload(actual) {
			return false
		}
		if _, ok := r.Lookup(actual); !ok {
			return false
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[strings.ToLower(alias)] = strings.ToLower(actual)
	return true
}

// Lookup returns the source of class, following aliases. It never autoloads.
func (r *Registry) Lookup(class string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := r.canonical(strings.ToLower(class))
	src, ok := r.classes[key]
	return src, ok
}

// Exists reports whether class has been loaded.
func (r *Registry) Exists(class string) bool {
	_, ok := r.Lookup(class)
	return ok
}

// initialize runs the initializer of class the first time it is called.
func (r *Registry) initialize(class string) {
	r.mu.Lock()
	key := r.canonical(strings.ToLower(class))
	src, ok := r.classes[key]
	if !ok || src.Init == nil || r.initialized[key] {
		r.mu.Unlock()
		return
	}
	r.initialized[key] = true
	r.mu.Unlock()

	src.Init()
}

// canonical follows alias chains (must hold mu).
func (r *Registry) canonical(key string) string {
	for range len(r.aliases) + 1 {
		target, ok := r.aliases[key]
		if !ok {
			break
		}
		key = target
	}
	return key
}
