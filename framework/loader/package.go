package loader

import (
	"os"
	"path/filepath"
	"strings"
)

// NamespaceSeparator separates namespace segments in a classname.
const NamespaceSeparator = "."

// ApplicationFile is the source an application package must provide; it is
// required when the package is loaded with RankApp.
const ApplicationFile = "application"

// module maps a sub-namespace onto a directory under modules/.
type module struct {
	path      string // "admin"
	namespace string // "Admin."
}

// Package is the default Loadable. It maps classnames onto sources keyed by
// the relative file they would live in:
//
//	App.Controller.Blog          → classes/Controller/Blog
//	App.Controller.Blog_Archive  → classes/Controller/Blog/Archive
//	App.Admin.Controller.Users   → modules/admin/classes/Controller/Users
//
// Source keys are case-insensitive.
type Package struct {
	path      string
	namespace string

	// relative file → source
	sources map[string]Source

	// lowercase classname → relative file
	classes map[string]string

	// lowercase alias → actual classname
	aliases map[string]string

	modules  []module
	prefixes map[string]string

	routable bool
	trigger  string

	registry ClassRegistry
}

// NewPackage creates an empty package with the default class type prefixes.
func NewPackage() *Package {
	return &Package{
		sources: make(map[string]Source),
		classes: make(map[string]string),
		aliases: make(map[string]string),
		prefixes: map[string]string{
			"controller": "Controller" + NamespaceSeparator,
			"model":      "Model" + NamespaceSeparator,
			"presenter":  "Presenter" + NamespaceSeparator,
			"task":       "Task" + NamespaceSeparator,
		},
	}
}

// SetRegistry implements RegistryAware.
func (p *Package) SetRegistry(r ClassRegistry) { p.registry = r }

// Path returns the base path of the package.
func (p *Package) Path() string { return p.path }

// Namespace returns the base namespace, with trailing separator when set.
func (p *Package) Namespace() string { return p.namespace }

// ── Configuration ─────────────────────────────────────────────────────────────

// SetPath sets the base path of the package.
func (p *Package) SetPath(path string) *Package {
	p.path = filepath.Clean(path)
	return p
}

// SetNamespace restricts the classes this package claims by convention to
// those under ns. A package without namespace only loads explicit classes.
func (p *Package) SetNamespace(ns string) *Package {
	ns = strings.Trim(ns, NamespaceSeparator)
	if ns == "" {
		p.namespace = ""
		return p
	}
	p.namespace = ns + NamespaceSeparator
	return p
}

// AddModule maps the sub-namespace ns onto modules/<path>/.
func (p *Package) AddModule(path, ns string) *Package {
	path = strings.Trim(path, `/\`)
	ns = strings.Trim(ns, NamespaceSeparator) + NamespaceSeparator
	for i, m := range p.modules {
		if m.path == path {
			p.modules[i].namespace = ns
			return p
		}
	}
	p.modules = append(p.modules, module{path: path, namespace: ns})
	return p
}

// RemoveModule unregisters the module at path.
func (p *Package) RemoveModule(path string) *Package {
	path = strings.Trim(path, `/\`)
	for i, m := range p.modules {
		if m.path == path {
			p.modules = append(p.modules[:i], p.modules[i+1:]...)
			break
		}
	}
	return p
}

// AddSource publishes a source under a relative file path.
func (p *Package) AddSource(file string, src Source) *Package {
	p.sources[normalizeFile(file)] = src
	return p
}

// Define is shorthand for AddSource with a constructor only.
//
//	pkg.Define("classes/Controller/Welcome", newWelcome)
func (p *Package) Define(file string, ctor func(args ...any) (any, error)) *Package {
	return p.AddSource(file, Source{New: ctor})
}

// AddClass maps class onto file, bypassing the path conventions.
func (p *Package) AddClass(class, file string) *Package {
	return p.AddClasses(map[string]string{class: file})
}

// AddClasses maps several classes onto files.
func (p *Package) AddClasses(classes map[string]string) *Package {
	for class, file := range classes {
		p.classes[strings.ToLower(class)] = file
	}
	return p
}

// RemoveClass drops an explicit class mapping.
func (p *Package) RemoveClass(class string) *Package {
	delete(p.classes, strings.ToLower(class))
	return p
}

// AddClassAlias makes alias load as actual.
func (p *Package) AddClassAlias(alias, actual string) *Package {
	return p.AddClassAliases(map[string]string{alias: actual})
}

// AddClassAliases registers several aliases.
func (p *Package) AddClassAliases(aliases map[string]string) *Package {
	for alias, actual := range aliases {
		p.aliases[strings.ToLower(alias)] = actual
	}
	return p
}

// SetRoutable implements Loadable.
func (p *Package) SetRoutable(routable bool) Loadable {
	p.routable = routable
	p.trigger = ""
	return p
}

// SetRouteTrigger implements Loadable.
func (p *Package) SetRouteTrigger(trigger string) Loadable {
	p.trigger = strings.Trim(trigger, "/")
	p.routable = p.trigger != ""
	return p
}

// SetClassTypePrefix changes the classname prefix used for kind.
func (p *Package) SetClassTypePrefix(kind, prefix string) *Package {
	p.prefixes[strings.ToLower(kind)] = prefix
	return p
}

// ClassTypePrefix returns the classname prefix for kind, or "".
func (p *Package) ClassTypePrefix(kind string) string {
	return p.prefixes[strings.ToLower(kind)]
}

// ── Loading ───────────────────────────────────────────────────────────────────

// LoadClass implements Loadable.
func (p *Package) LoadClass(class string) bool {
	lower := strings.ToLower(class)

	if file, ok := p.classes[lower]; ok {
		return p.include(class, file)
	}
	if actual, ok := p.aliases[lower]; ok {
		return p.registry != nil && p.registry.Alias(actual, class)
	}

	if p.namespace == "" || !hasPrefixFold(class, p.namespace) {
		return false
	}
	rel := class[len(p.namespace):]

	base := ""
	for _, m := range p.modules {
		if hasPrefixFold(rel, m.namespace) {
			rel = rel[len(m.namespace):]
			base = "modules/" + m.path + "/"
			break
		}
	}

	return p.include(class, base+"classes/"+classToPath(rel))
}

// include registers the source at file under class.
func (p *Package) include(class, file string) bool {
	src, ok := p.sources[normalizeFile(file)]
	if !ok || p.registry == nil {
		return false
	}
	p.registry.Define(class, src)
	return true
}

// Require implements Requirer: it runs the initializer of the source at file.
func (p *Package) Require(file string) bool {
	src, ok := p.sources[normalizeFile(file)]
	if !ok {
		return false
	}
	if src.Init != nil {
		src.Init()
	}
	return true
}

// FindClass implements Loadable.
func (p *Package) FindClass(kind, path string) (string, bool) {
	if !p.routable {
		return "", false
	}
	path = strings.Trim(path, "/")

	if p.trigger != "" {
		if !strings.HasPrefix(strings.ToLower(path), strings.ToLower(p.trigger)+"/") {
			return "", false
		}
		path = path[len(p.trigger)+1:]
	}

	ns := p.namespace
	if i := strings.Index(path, "/"); i > 0 {
		if m, ok := p.module(path[:i]); ok {
			ns += m.namespace
			path = path[i+1:]
		}
	}

	class := ns + p.ClassTypePrefix(kind) + strings.ReplaceAll(path, "/", "_")
	if p.LoadClass(class) {
		return class, true
	}
	return "", false
}

// FindFile implements Loadable. The file may be addressed as
// "module:relative/file" to search a single module.
func (p *Package) FindFile(location, file string) (string, bool) {
	location = strings.Trim(location, `/\`)

	if i := strings.Index(file, ":"); i >= 0 {
		m, ok := p.module(file[:i])
		if !ok {
			return "", false
		}
		return isFile(filepath.Join(p.path, "modules", m.path, location, file[i+1:]))
	}

	if found, ok := isFile(filepath.Join(p.path, location, file)); ok {
		return found, true
	}

	for _, m := range p.modules {
		if found, ok := isFile(filepath.Join(p.path, "modules", m.path, location, file)); ok {
			return found, true
		}
	}
	return "", false
}

func (p *Package) module(path string) (module, bool) {
	for _, m := range p.modules {
		if strings.EqualFold(m.path, path) {
			return m, true
		}
	}
	return module{}, false
}

// ── helpers ───────────────────────────────────────────────────────────────────

// classToPath converts a classname relative to the package namespace into a
// file path: namespace separators and underscores in the class part both
// become directories.
func classToPath(class string) string {
	file := ""
	if i := strings.LastIndex(class, NamespaceSeparator); i > 0 {
		file = strings.ReplaceAll(class[:i], NamespaceSeparator, "/") + "/"
		class = class[i+1:]
	}
	return file + strings.ReplaceAll(class, "_", "/")
}

func normalizeFile(file string) string {
	return strings.ToLower(strings.Trim(filepath.ToSlash(file), "/"))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}
