package app

import (
	fhttp "github.com/km-arc/go-fuel/framework/http"
)

// ── Injection ─────────────────────────────────────────────────────────────────

// EnvironmentAware objects receive the environment they were forged in.
// Packages implementing it receive the environment when they are loaded.
type EnvironmentAware interface {
	SetEnvironment(env *Environment)
}

// ApplicationAware objects receive the application they were forged in.
type ApplicationAware interface {
	SetApplication(a *Application)
}

// ── Routing ───────────────────────────────────────────────────────────────────

// Handler is a matched controller entry point. It receives the URI segments
// the route did not consume.
type Handler func(segments []string) (fhttp.Responsible, error)

// Route resolves a URI to a Handler.
type Route interface {
	// Matches reports whether the route accepts uri for the active request.
	// On success the match is kept for Match.
	Matches(uri string) bool

	// Match returns the handler and residual segments of the last match.
	Match() (Handler, []string)
}

// Routable controllers dispatch their own residual segments.
type Routable interface {
	Router(segments []string) (fhttp.Responsible, error)
}

// ── Application services ─────────────────────────────────────────────────────

// ErrorHandler turns an error escaping a request into a response.
type ErrorHandler interface {
	Handle(err error) fhttp.Responsible
}

// Configurable is the application configuration repository.
type Configurable interface {
	Load(file string) error
	Get(key string, fallback any) any
}

// Translator is the application language repository.
type Translator interface {
	Load(file, lang string) error
	Get(key string, fallback any) any
}

// URICleaner cleans request URIs before they are routed.
type URICleaner interface {
	CleanURI(uri string) string
}

// ── Definition ────────────────────────────────────────────────────────────────

// Definition is what an application package provides: the packages it needs,
// its setup and its routes.
//
//	type Application struct{ app.BaseDefinition }
//
//	func (Application) Router(a *app.Application) error {
//	    _, err := a.AddRouteString("hello", `hello/(\w+)`, "welcome/hello/$1")
//	    return err
//	}
type Definition interface {
	// Packages lists the packages loaded before the application is set up.
	Packages() []string

	// Setup runs after the container is in place and before the
	// application services are forged.
	Setup(a *Application) error

	// Router registers the routes.
	Router(a *Application) error
}

// BaseDefinition provides no-op Packages and Setup.
type BaseDefinition struct {
	Deps []string
}

func (d BaseDefinition) Packages() []string       { return d.Deps }
func (BaseDefinition) Setup(_ *Application) error { return nil }
