package loader

import "errors"

var (
	// ErrUnknownPackage is returned when a rank+name lookup finds nothing.
	ErrUnknownPackage = errors.New("loader: unknown package")

	// ErrUnknownRank is returned for a rank outside App, Package and Core.
	ErrUnknownRank = errors.New("loader: unknown package rank")

	// ErrDuplicatePackage is returned when a different Loadable is added under
	// a name+rank that is already taken.
	ErrDuplicatePackage = errors.New("loader: package already loaded")

	// ErrManifestNotFound is returned when no manifest is registered for a
	// package name.
	ErrManifestNotFound = errors.New("loader: package manifest not found")

	// ErrCorruptManifest is returned when a manifest produces no Loadable.
	ErrCorruptManifest = errors.New("loader: package manifest returned no loader")
)
