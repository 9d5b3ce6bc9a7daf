// Package data provides the configuration and language repositories of an
// application.
//
// Both are dot-key repositories filled from YAML or JSON files found through
// the application: the application package itself and the packages it
// declared. Files from packages are merged first so the application has the
// last word.
package data
