// Package routing matches request URIs onto controllers.
//
// A Route pairs a search pattern with a translation. The search is an
// anchored regular expression, optionally prefixed by the methods it
// accepts; the translation is a path (with $n backreferences) or a handler:
//
//	route, err := routing.New(`GET post/(\d+)`, "blog/view/$1")
//	a.AddRoute("post", route)
//
//	a.AddRouteString("ping", "ping", app.Handler(pong))
//
// A translated path is resolved to a controller by a Resolver. The default
// ShrinkResolver drops segments from the right until a controller class is
// found, so "/blog/view/12" reaches the Blog controller with the segments
// [view 12] when no Blog_View controller exists.
package routing
