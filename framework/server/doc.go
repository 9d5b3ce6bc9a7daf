// Package server puts applications behind net/http.
//
// Each mounted prefix maps onto one application; the rest of the path is the
// URI the application routes. Requests reach the kernel one at a time, since
// the active application and request are shared state.
//
//	srv := server.New(server.WithLogger(log))
//	srv.Mount("/", site)
//	err := srv.Run(ctx, ":8000")
package server
