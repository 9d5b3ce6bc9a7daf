package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/km-arc/go-fuel/framework/container"
	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/loader"
	"github.com/km-arc/go-fuel/framework/notifier"
)

// ConfigFile is the main configuration file loaded for every application.
const ConfigFile = "config.yaml"

// Release ends an activation. Calling it more than once has no effect.
type Release func()

// Application is one application running inside an Environment: its own
// container chained to the root one, its loader package and its routes.
type Application struct {
	mu sync.RWMutex

	name string
	env  *Environment
	def  Definition
	pkg  loader.Loadable
	dic  *container.Container
	log  *slog.Logger

	routes     map[string]Route
	routeOrder []string

	request       *Request
	activeRequest *Request

	// applications active before each Activate
	before []*Application

	errorHandler ErrorHandler
	config       Configurable
	security     URICleaner
	language     Translator
	notifier     *notifier.Notifier
}

// New creates an application from its definition. The declared packages are
// loaded, configure runs, and the application services are forged from the
// container before the definition registers its routes.
func New(env *Environment, name string, def Definition, pkg loader.Loadable, configure func(*Application) error) (*Application, error) {
	a := &Application{
		name:   name,
		env:    env,
		def:    def,
		pkg:    pkg,
		log:    env.Logger().With(slog.String("app", name)),
		routes: make(map[string]Route),
	}

	for _, p := range def.Packages() {
		if _, err := env.Loader().LoadPackage(p, loader.RankPackage); err != nil {
			return nil, fmt.Errorf("app %s: %w", name, err)
		}
	}

	if configure != nil {
		if err := configure(a); err != nil {
			return nil, fmt.Errorf("app %s: configure: %w", name, err)
		}
	}
	if a.dic == nil {
		a.dic = container.New(env.Loader(), a, env.Container())
	}

	if err := def.Setup(a); err != nil {
		return nil, fmt.Errorf("app %s: setup: %w", name, err)
	}

	var err error
	if a.notifier, err = forgeAs[*notifier.Notifier](a, "Notifier"); err != nil {
		return nil, err
	}
	if a.errorHandler, err = forgeAs[ErrorHandler](a, "Error"); err != nil {
		return nil, err
	}
	if a.config, err = forgeAs[Configurable](a, "Config"); err != nil {
		return nil, err
	}
	if err := a.config.Load(ConfigFile); err != nil {
		return nil, fmt.Errorf("app %s: %w", name, err)
	}
	if a.security, err = forgeAs[URICleaner](a, "Security"); err != nil {
		return nil, err
	}
	if a.language, err = forgeAs[Translator](a, "Language"); err != nil {
		return nil, err
	}

	if err := def.Router(a); err != nil {
		return nil, fmt.Errorf("app %s: router: %w", name, err)
	}

	a.notifier.Notify(notifier.AppCreated, a, "New")
	a.log.Debug("application created", slog.Int("routes", len(a.routeOrder)))
	return a, nil
}

// forgeAs forges class through the application and checks its type.
func forgeAs[T any](a *Application, class string, args ...any) (T, error) {
	var zero T
	instance, err := a.Forge(class, args...)
	if err != nil {
		return zero, fmt.Errorf("app %s: %w", a.name, err)
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s forged %T, want %T", ErrUnexpectedType, class, instance, zero)
	}
	return typed, nil
}

// Inject implements container.Injector for the application container.
func (a *Application) Inject(instance any) {
	if ea, ok := instance.(EnvironmentAware); ok {
		ea.SetEnvironment(a.env)
	}
	if aa, ok := instance.(ApplicationAware); ok {
		aa.SetApplication(a)
	}
}

// SetContainer replaces the default container. Only meaningful from the
// configure closure passed to New.
func (a *Application) SetContainer(c *container.Container) { a.dic = c }

// ── Accessors ─────────────────────────────────────────────────────────────────

func (a *Application) Name() string                    { return a.name }
func (a *Application) Environment() *Environment       { return a.env }
func (a *Application) Definition() Definition          { return a.def }
func (a *Application) Package() loader.Loadable        { return a.pkg }
func (a *Application) Container() *container.Container { return a.dic }
func (a *Application) Logger() *slog.Logger            { return a.log }
func (a *Application) Notifier() *notifier.Notifier    { return a.notifier }
func (a *Application) ErrorHandler() ErrorHandler      { return a.errorHandler }
func (a *Application) Config() Configurable            { return a.config }
func (a *Application) Security() URICleaner            { return a.security }
func (a *Application) Language() Translator            { return a.language }

// Notify announces event to the application's observers.
func (a *Application) Notify(event string, source any, method string) {
	if a.notifier != nil {
		a.notifier.Notify(event, source, method)
	}
}

// ── Routes ────────────────────────────────────────────────────────────────────

// AddRoute registers route under name. Routes are tried in the order they
// were first added.
func (a *Application) AddRoute(name string, route Route) Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.routes[name]; !ok {
		a.routeOrder = append(a.routeOrder, name)
	}
	a.routes[name] = route
	return route
}

// AddRouteString forges a Route for pattern and registers it under name.
// The translation may be a string, a Handler or nil (the pattern itself).
//
//	a.AddRouteString("post", "GET blog/(\\d+)", "blog/view/$1")
func (a *Application) AddRouteString(name, pattern string, translation any, methods ...string) (Route, error) {
	route, err := forgeAs[Route](a, "Route", pattern, translation, methods)
	if err != nil {
		return nil, err
	}
	return a.AddRoute(name, route), nil
}

// Route returns the route registered under name.
func (a *Application) Route(name string) (Route, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	route, ok := a.routes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	return route, nil
}

// Routes returns the route names in matching order.
func (a *Application) Routes() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.routeOrder...)
}

// ProcessRoute finds the handler for uri: the registered routes first, then
// a route forged for the uri itself. Nothing matching is a 404 HTTPError.
func (a *Application) ProcessRoute(uri string) (Handler, []string, error) {
	a.mu.RLock()
	routes := make([]Route, 0, len(a.routeOrder))
	for _, name := range a.routeOrder {
		routes = append(routes, a.routes[name])
	}
	a.mu.RUnlock()

	for _, route := range routes {
		if route.Matches(uri) {
			handler, segments := route.Match()
			return handler, segments, nil
		}
	}

	fallback, err := forgeAs[Route](a, "Route", uri)
	if err != nil {
		return nil, nil, err
	}
	if fallback.Matches(uri) {
		handler, segments := fallback.Match()
		return handler, segments, nil
	}

	return nil, nil, fhttp.ErrNotFound("No route found for: "+uri, fhttp.WithRequestID(a.activeRequestID()))
}

func (a *Application) activeRequestID() string {
	if r := a.ActiveRequest(); r != nil {
		return r.ID()
	}
	return ""
}

// ── Requests ──────────────────────────────────────────────────────────────────

// Request forges the main request of the application for uri. A nil input
// falls back on the environment input.
func (a *Application) Request(uri string, input *fhttp.Input) (*Request, error) {
	if a.security != nil {
		uri = a.security.CleanURI(uri)
	}
	req, err := forgeAs[*Request](a, "Request", uri, input)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.request = req
	a.mu.Unlock()
	return req, nil
}

// Execute runs the main request with the application active.
func (a *Application) Execute() error {
	a.mu.RLock()
	req := a.request
	a.mu.RUnlock()
	if req == nil {
		return ErrNoRequest
	}

	return a.Run(req.Execute)
}

// Response returns the response of the main request, or nil.
func (a *Application) Response() fhttp.Responsible {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.request == nil {
		return nil
	}
	return a.request.Response()
}

// MainRequest returns the request created by Request, or nil.
func (a *Application) MainRequest() *Request {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.request
}

// ── Activation ────────────────────────────────────────────────────────────────

// Activate makes the application the active one in its environment until the
// returned Release (or Deactivate) is called.
//
//	release := a.Activate()
//	defer release()
func (a *Application) Activate() Release {
	prev := a.env.ActiveApplication()
	a.mu.Lock()
	a.before = append(a.before, prev)
	a.mu.Unlock()
	a.env.setActive(a)

	var once sync.Once
	return func() { once.Do(func() { _ = a.Deactivate() }) }
}

// Deactivate restores the application that was active before the last
// Activate.
func (a *Application) Deactivate() error {
	a.mu.Lock()
	n := len(a.before)
	if n == 0 {
		a.mu.Unlock()
		return ErrContextUnderflow
	}
	prev := a.before[n-1]
	a.before = a.before[:n-1]
	a.mu.Unlock()

	a.env.setActive(prev)
	return nil
}

// Run calls fn with the application active and releases it on every exit
// path, panics included.
func (a *Application) Run(fn func() error) error {
	release := a.Activate()
	defer release()
	return fn()
}

// ActiveRequest returns the request currently active, or nil.
func (a *Application) ActiveRequest() *Request {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.activeRequest
}

func (a *Application) setActiveRequest(r *Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activeRequest = r
}

// ── Files & classes ───────────────────────────────────────────────────────────

// FindFile looks for file under location in the application package, then in
// the packages the application declared.
func (a *Application) FindFile(location, file string) (string, bool) {
	for _, pkg := range a.searchPackages() {
		if path, ok := pkg.FindFile(location, file); ok {
			return path, true
		}
	}
	return "", false
}

// FindFiles returns every match of file under location, application first.
func (a *Application) FindFiles(location, file string) []string {
	var found []string
	for _, pkg := range a.searchPackages() {
		if path, ok := pkg.FindFile(location, file); ok {
			found = append(found, path)
		}
	}
	return found
}

// FindClass resolves a routable path of kind ("controller", "presenter") to
// a loaded classname.
func (a *Application) FindClass(kind, path string) (string, bool) {
	for _, pkg := range a.searchPackages() {
		if class, ok := pkg.FindClass(kind, path); ok {
			return class, true
		}
	}
	return "", false
}

func (a *Application) searchPackages() []loader.Loadable {
	pkgs := []loader.Loadable{a.pkg}
	for _, name := range a.def.Packages() {
		if pkg, err := a.env.Loader().Package(name, loader.RankPackage); err == nil {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}

// ── Container shortcuts ───────────────────────────────────────────────────────

// Class translates a classname through the application container.
func (a *Application) Class(name string) string { return a.dic.Class(name) }

// Forge forges a class through the application container.
func (a *Application) Forge(class string, args ...any) (any, error) {
	return a.dic.Forge(class, args...)
}

// Object fetches an instance from the application container.
func (a *Application) Object(class string, name ...string) (any, error) {
	return a.dic.Object(class, name...)
}

var _ container.Injector = (*Application)(nil)
