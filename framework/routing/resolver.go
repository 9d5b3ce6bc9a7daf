package routing

import "strings"

// ControllerKind is the class kind routes resolve.
const ControllerKind = "controller"

// ClassFinder resolves a routable path to a loaded classname.
type ClassFinder interface {
	FindClass(kind, path string) (string, bool)
}

// Resolver finds the controller class a translated path points at. The
// segments it did not use become the controller arguments.
type Resolver interface {
	Resolve(finder ClassFinder, path string) (class string, segments []string, ok bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(finder ClassFinder, path string) (string, []string, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(finder ClassFinder, path string) (string, []string, bool) {
	return f(finder, path)
}

// ShrinkResolver tries the whole path first and drops one segment from the
// right until a controller is found:
//
//	/blog/2024/01/title → Controller.Blog_2024_01_Title, Controller.Blog_2024_01,
//	                      Controller.Blog_2024, Controller.Blog
//
// With only Blog defined the segments are [2024 01 title].
type ShrinkResolver struct{}

// Resolve implements Resolver.
func (ShrinkResolver) Resolve(finder ClassFinder, path string) (string, []string, bool) {
	parts := split(path)
	for n := len(parts); n > 0; n-- {
		if class, ok := finder.FindClass(ControllerKind, strings.Join(parts[:n], "/")); ok {
			return class, parts[n:], true
		}
	}
	return "", nil, false
}

// ExactResolver only accepts a controller for the whole path; the route
// then dispatches the default action without segments.
type ExactResolver struct{}

// Resolve implements Resolver.
func (ExactResolver) Resolve(finder ClassFinder, path string) (string, []string, bool) {
	parts := split(path)
	if len(parts) == 0 {
		return "", nil, false
	}
	class, ok := finder.FindClass(ControllerKind, strings.Join(parts, "/"))
	return class, nil, ok
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
