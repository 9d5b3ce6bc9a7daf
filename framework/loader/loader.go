package loader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/km-arc/go-fuel/framework/container"
)

// Rank orders package searches: lower ranks are searched first.
type Rank int

const (
	// RankApp holds application packages.
	RankApp Rank = 0

	// RankPackage holds normal packages.
	RankPackage Rank = 1000

	// RankCore holds core packages; searched last and never routable.
	RankCore Rank = 100000
)

func (r Rank) String() string {
	switch r {
	case RankApp:
		return "app"
	case RankPackage:
		return "package"
	case RankCore:
		return "core"
	}
	return fmt.Sprintf("rank(%d)", int(r))
}

// entry is a named package in registration order.
type entry struct {
	name string
	pkg  Loadable
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load events.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithBasePath sets the directory conventional packages are loaded from.
func WithBasePath(path string) Option {
	return func(l *Loader) { l.basePath = path }
}

// WithManifests replaces the process-wide manifest registry.
func WithManifests(m *Manifests) Option {
	return func(l *Loader) { l.manifests = m }
}

// Loader searches packages, rank by rank and in registration order, for the
// classes the containers ask for.
type Loader struct {
	mu       sync.RWMutex
	packages map[Rank][]entry

	registry  *Registry
	manifests *Manifests
	basePath  string
	log       *slog.Logger

	// namespaces whose classes are also reachable without the namespace
	globalAliases []string

	// outer-most class of the load in progress
	current string

	onLoaded []func(name string, rank Rank, pkg Loadable)
}

// New creates a Loader with the three standard ranks.
func New(opts ...Option) *Loader {
	l := &Loader{
		packages: map[Rank][]entry{
			RankApp:     nil,
			RankPackage: nil,
			RankCore:    nil,
		},
		registry:  NewRegistry(),
		manifests: defaultManifests,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.registry.autoload = l.LoadClass
	return l
}

// Registry returns the runtime class table.
func (l *Loader) Registry() *Registry { return l.registry }

// BasePath returns the directory conventional packages are loaded from.
func (l *Loader) BasePath() string { return l.basePath }

// SetBasePath changes the directory conventional packages are loaded from.
func (l *Loader) SetBasePath(path string) { l.basePath = path }

// OnPackageLoaded registers a callback fired whenever a package is added.
func (l *Loader) OnPackageLoaded(cb func(name string, rank Rank, pkg Loadable)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLoaded = append(l.onLoaded, cb)
}

// ── Registration ──────────────────────────────────────────────────────────────

// AddPackage registers an anonymous package.
func (l *Loader) AddPackage(pkg Loadable, rank Rank) Loadable {
	added, _ := l.AddNamedPackage(uuid.NewString(), pkg, rank)
	return added
}

// AddNamedPackage registers pkg under name. Adding the same package twice is
// a no-op; a different package under a taken name is ErrDuplicatePackage.
func (l *Loader) AddNamedPackage(name string, pkg Loadable, rank Rank) (Loadable, error) {
	l.mu.Lock()
	if existing, ok := l.find(name, rank); ok {
		l.mu.Unlock()
		if existing == pkg {
			return existing, nil
		}
		return existing, fmt.Errorf("%w: %s (%s)", ErrDuplicatePackage, name, rank)
	}
	l.packages[rank] = append(l.packages[rank], entry{name: name, pkg: pkg})
	cbs := slices.Clone(l.onLoaded)
	l.mu.Unlock()

	if ra, ok := pkg.(RegistryAware); ok {
		ra.SetRegistry(l.registry)
	}

	l.log.Debug("package loaded", slog.String("package", name), slog.String("rank", rank.String()), slog.String("path", pkg.Path()))
	for _, cb := range cbs {
		cb(name, rank, pkg)
	}
	return pkg, nil
}

// LoadPackage loads the package name from its conventional location under
// the base path.
func (l *Loader) LoadPackage(name string, rank Rank) (Loadable, error) {
	return l.LoadPackageAt(name, filepath.Join(l.basePath, name), rank)
}

// LoadPackageAt loads the package name from path through its manifest.
// Loading an already loaded package returns it unchanged.
//
// Application packages must provide an "application" source; its initializer
// runs once the package is registered.
func (l *Loader) LoadPackageAt(name, path string, rank Rank) (Loadable, error) {
	l.mu.RLock()
	existing, ok := l.find(name, rank)
	l.mu.RUnlock()
	if ok {
		return existing, nil
	}

	manifest, ok := l.manifests.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, name)
	}
	pkg := manifest.Package(path)
	if pkg == nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptManifest, name)
	}

	pkg, err := l.AddNamedPackage(name, pkg, rank)
	if err != nil {
		return nil, err
	}

	if rank == RankApp {
		req, ok := pkg.(Requirer)
		if !ok || !req.Require(ApplicationFile) {
			l.log.Warn("application package without application source", slog.String("package", name))
		}
	}
	return pkg, nil
}

// find looks up a registered package (must hold mu).
func (l *Loader) find(name string, rank Rank) (Loadable, bool) {
	for _, e := range l.packages[rank] {
		if e.name == name {
			return e.pkg, true
		}
	}
	return nil, false
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Package returns the package registered under name and rank.
func (l *Loader) Package(name string, rank Rank) (Loadable, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pkg, ok := l.find(name, rank); ok {
		return pkg, nil
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownPackage, name, rank)
}

// Packages returns every package in search order.
func (l *Loader) Packages() []Loadable {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ranks := make([]Rank, 0, len(l.packages))
	for rank := range l.packages {
		ranks = append(ranks, rank)
	}
	slices.Sort(ranks)

	var all []Loadable
	for _, rank := range ranks {
		for _, e := range l.packages[rank] {
			all = append(all, e.pkg)
		}
	}
	return all
}

// PackagesOf returns the packages of one rank in registration order.
func (l *Loader) PackagesOf(rank Rank) ([]Loadable, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries, ok := l.packages[rank]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRank, int(rank))
	}
	pkgs := make([]Loadable, len(entries))
	for i, e := range entries {
		pkgs[i] = e.pkg
	}
	return pkgs, nil
}

// ── Class loading ─────────────────────────────────────────────────────────────

// AddGlobalNamespaceAlias makes every class under ns loadable without the
// namespace prefix.
func (l *Loader) AddGlobalNamespaceAlias(ns string) *Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.globalAliases = append(l.globalAliases, strings.Trim(ns, NamespaceSeparator)+NamespaceSeparator)
	return l
}

// LoadClass asks each package in turn to load class. The outer-most class of
// a load has its initializer run once it is found.
func (l *Loader) LoadClass(class string) bool {
	return l.loadClass(class, true)
}

// loadClass tries the global aliases only when withAliases is set, so an
// aliased lookup is never aliased again.
func (l *Loader) loadClass(class string, withAliases bool) bool {
	class = strings.TrimLeft(class, NamespaceSeparator)

	l.mu.Lock()
	outer := l.current == ""
	if outer {
		l.current = class
	}
	aliases := slices.Clone(l.globalAliases)
	l.mu.Unlock()

	if outer {
		defer func() {
			l.mu.Lock()
			l.current = ""
			l.mu.Unlock()
		}()
	}

	for _, pkg := range l.Packages() {
		if pkg.LoadClass(class) {
			l.log.Debug("class loaded", slog.String("class", class))
			l.initClass(class)
			return true
		}
	}

	if !withAliases {
		return false
	}
	for _, ns := range aliases {
		if hasPrefixFold(class, ns) {
			continue
		}
		if l.loadClass(ns+class, false) && l.registry.Alias(ns+class, class) {
			l.initClass(class)
			return true
		}
	}
	return false
}

// initClass runs the initializer of class when it is the outer-most class
// being loaded.
func (l *Loader) initClass(class string) {
	l.mu.RLock()
	current := l.current
	l.mu.RUnlock()
	if strings.EqualFold(current, class) {
		l.registry.initialize(class)
	}
}

// Class implements container.ClassResolver: it returns the constructor of
// class, autoloading it on a miss.
func (l *Loader) Class(class string) (container.Constructor, bool) {
	if src, ok := l.registry.Lookup(class); ok {
		return src.New, src.New != nil
	}
	if !l.LoadClass(class) {
		return nil, false
	}
	src, ok := l.registry.Lookup(class)
	return src.New, ok && src.New != nil
}

// Exists reports whether class is loaded without attempting to load it.
func (l *Loader) Exists(class string) bool {
	return l.registry.Exists(class)
}

var _ container.ClassResolver = (*Loader)(nil)
