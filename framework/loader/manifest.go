package loader

import (
	"strings"
	"sync"
)

// ── Manifest interface ────────────────────────────────────────────────────────

// Manifest builds the Loadable of a named package. It is the compiled-in
// stand-in for the loader file every package directory ships with.
//
//	loader.RegisterManifest("blog", loader.ManifestFunc(func(path string) loader.Loadable {
//	    return loader.NewPackage().
//	        SetPath(path).
//	        SetNamespace("Blog").
//	        Define("classes/Model/Post", newPost)
//	}))
type Manifest interface {
	// Package returns the package rooted at path, or nil when the manifest
	// cannot produce one.
	Package(path string) Loadable
}

// ManifestFunc adapts a plain function to Manifest.
type ManifestFunc func(path string) Loadable

// Package implements Manifest.
func (f ManifestFunc) Package(path string) Loadable { return f(path) }

// ── Manifest registry ─────────────────────────────────────────────────────────

// Manifests maps package names onto their manifests. Names are
// case-insensitive.
type Manifests struct {
	mu        sync.RWMutex
	manifests map[string]Manifest
}

// NewManifests creates an empty manifest registry.
func NewManifests() *Manifests {
	return &Manifests{manifests: make(map[string]Manifest)}
}

// Register adds or replaces the manifest of name.
func (m *Manifests) Register(name string, manifest Manifest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[strings.ToLower(name)] = manifest
}

// Lookup returns the manifest registered under name.
func (m *Manifests) Lookup(name string) (Manifest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	manifest, ok := m.manifests[strings.ToLower(name)]
	return manifest, ok
}

// Names returns the registered package names.
func (m *Manifests) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.manifests))
	for name := range m.manifests {
		names = append(names, name)
	}
	return names
}

// defaultManifests backs the package-level RegisterManifest.
var defaultManifests = NewManifests()

// RegisterManifest registers a manifest in the process-wide registry, usually
// from an init function of the package that ships it.
func RegisterManifest(name string, manifest Manifest) {
	defaultManifests.Register(name, manifest)
}

// DefaultManifests returns the process-wide manifest registry.
func DefaultManifests() *Manifests { return defaultManifests }
