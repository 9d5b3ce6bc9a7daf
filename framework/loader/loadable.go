package loader

// Loadable is a package the Loader can search for classes and files.
type Loadable interface {
	// Path returns the base path of the package.
	Path() string

	// LoadClass makes class available in the runtime registry when this
	// package provides it.
	LoadClass(class string) bool

	// FindClass resolves a routable path of the given kind ("controller",
	// "presenter", ...) to a loaded classname.
	FindClass(kind, path string) (string, bool)

	// FindFile locates file under location inside the package.
	FindFile(location, file string) (string, bool)

	// SetRoutable enables or disables class lookups by route.
	SetRoutable(routable bool) Loadable

	// SetRouteTrigger makes the package routable only for paths starting with
	// trigger; the trigger is stripped before lookup.
	SetRouteTrigger(trigger string) Loadable
}

// ClassRegistry receives the classes a package loads.
type ClassRegistry interface {
	Define(class string, src Source)
	Alias(actual, alias string) bool
}

// RegistryAware packages are handed the runtime registry when the Loader
// registers them.
type RegistryAware interface {
	SetRegistry(r ClassRegistry)
}

// Requirer packages can run a named source file for its side effects.
type Requirer interface {
	Require(file string) bool
}
