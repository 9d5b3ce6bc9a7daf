// Package http holds the request input, the response and the HTTP error type
// shared by the kernel, its controllers and the front server.
//
// # Input
//
// Input wraps *http.Request with the lookups a kernel request needs. Sub
// requests get their own Input that falls back on the parent's.
//
//	in := fhttp.NewInput(r)
//
//	in.Method()             // "GET", honours X-HTTP-Method-Override
//	in.URI()                // "/users" for /users.json
//	in.Extension()          // "json"
//	in.Param("name", "x")   // explicit params, body, then query string
//	in.Query("page", "1")
//	in.Cookie("session")
//	in.Language(language.English, language.Dutch)
//
//	sub := fhttp.NewCLIInput(http.MethodGet, "/widgets/sidebar", nil).WithParent(in)
//
// # Response
//
//	res := fhttp.NewResponse("Hello", http.StatusOK, nil)
//	res.SetHeader("X-Frame-Options", "DENY", true)
//	res.SetHeader("Set-Cookie", "a=1", false) // appended
//	err := res.Send(w)
//
//	res, err := fhttp.NewJSONResponse(http.StatusCreated, payload)
//	res := fhttp.NewRedirect("/login", 0) // 302
//
// # Errors
//
//	return nil, fhttp.ErrNotFound("no such page", fhttp.WithRequestID(id))
//
//	fhttp.StatusOf(err) // 404 for the error above, 500 for anything else
package http
