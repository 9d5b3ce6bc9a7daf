package app

import "errors"

var (
	// ErrContextUnderflow is returned by Deactivate when nothing was
	// activated before it. The active pointer is left untouched.
	ErrContextUnderflow = errors.New("app: deactivate without matching activate")

	// ErrUnknownRoute is returned when a named route is not registered.
	ErrUnknownRoute = errors.New("app: unknown route")

	// ErrUnknownApplication is returned when no application class can be
	// found for an application name.
	ErrUnknownApplication = errors.New("app: unknown application")

	// ErrAlreadyInitialized is returned by a second Environment.Init.
	ErrAlreadyInitialized = errors.New("app: environment already initialized")

	// ErrNotInitialized is returned when the environment is used before Init.
	ErrNotInitialized = errors.New("app: environment not initialized")

	// ErrMissingPath is returned by Init without a packages path.
	ErrMissingPath = errors.New("app: path to the packages directory is required")

	// ErrUnknownPath is returned for a path name that was never added.
	ErrUnknownPath = errors.New("app: unknown path")

	// ErrPathExists is returned when a path name is taken and overwriting
	// was not allowed.
	ErrPathExists = errors.New("app: path already registered")

	// ErrNoRequest is returned by Execute before a request was created.
	ErrNoRequest = errors.New("app: no request to execute")

	// ErrUnexpectedType is returned when a forged class does not implement
	// the interface its role requires.
	ErrUnexpectedType = errors.New("app: forged class has unexpected type")
)
