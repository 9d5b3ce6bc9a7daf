package app_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-fuel/framework/app"
	"github.com/km-arc/go-fuel/framework/container"
	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/loader"
	"github.com/km-arc/go-fuel/framework/logger"
	"github.com/km-arc/go-fuel/framework/notifier"
)

// ── Fixtures ──────────────────────────────────────────────────────────────────

// kernelPackage is a minimal core package wiring the root classes.
type kernelPackage struct {
	*loader.Package
}

func (k kernelPackage) SetEnvironment(env *app.Environment) {
	env.Container().SetClasses(map[string]string{
		"Error":    "Kernel.Error",
		"Config":   "Kernel.Config",
		"Language": "Kernel.Language",
		"Security": "Kernel.Security",
		"Notifier": "Kernel.Notifier",
		"Request":  "Kernel.Request",
		"Route":    "Kernel.Route",
	})
}

type errorHandler struct{}

func (errorHandler) Handle(err error) fhttp.Responsible {
	return fhttp.NewResponse(err.Error(), fhttp.StatusOf(err), nil)
}

type configRepo struct{ loaded []string }

func (c *configRepo) Load(file string) error         { c.loaded = append(c.loaded, file); return nil }
func (c *configRepo) Get(_ string, fallback any) any { return fallback }

type languageRepo struct{}

func (languageRepo) Load(_, _ string) error         { return nil }
func (languageRepo) Get(_ string, fallback any) any { return fallback }

type passthrough struct{}

func (passthrough) CleanURI(uri string) string { return uri }

// exactRoute matches one path onto a handler.
type exactRoute struct {
	path    string
	handler app.Handler
}

func (r *exactRoute) Matches(uri string) bool        { return r.handler != nil && r.path == uri }
func (r *exactRoute) Match() (app.Handler, []string) { return r.handler, nil }

func returns(v any) container.Constructor {
	return func(...any) (any, error) { return v, nil }
}

func newKernel(path string) loader.Loadable {
	pkg := loader.NewPackage().
		SetPath(path).
		SetNamespace("Kernel").
		Define("classes/Error", returns(errorHandler{})).
		Define("classes/Config", func(...any) (any, error) { return &configRepo{}, nil }).
		Define("classes/Language", returns(languageRepo{})).
		Define("classes/Security", returns(passthrough{})).
		Define("classes/Notifier", func(...any) (any, error) { return notifier.New(), nil }).
		Define("classes/Request", func(args ...any) (any, error) {
			uri, _ := args[0].(string)
			var input *fhttp.Input
			if len(args) > 1 {
				input, _ = args[1].(*fhttp.Input)
			}
			return app.NewRequest(uri, input), nil
		}).
		Define("classes/Route", func(args ...any) (any, error) {
			r := &exactRoute{path: "/" + strings.Trim(args[0].(string), "/")}
			if len(args) > 1 {
				r.handler, _ = args[1].(app.Handler)
			}
			return r, nil
		})
	return kernelPackage{pkg}
}

// definition is an application definition with pluggable hooks.
type definition struct {
	app.BaseDefinition
	setup  func(a *app.Application) error
	routes func(a *app.Application) error
}

func (d *definition) Setup(a *app.Application) error {
	if d.setup == nil {
		return nil
	}
	return d.setup(a)
}

func (d *definition) Router(a *app.Application) error {
	if d.routes == nil {
		return nil
	}
	return d.routes(a)
}

func text(body string) app.Handler {
	return func([]string) (fhttp.Responsible, error) {
		return fhttp.NewResponse(body, 200, nil), nil
	}
}

type fixture struct {
	env       *app.Environment
	manifests *loader.Manifests
}

func newFixture(t *testing.T, configure ...func(*app.Options)) *fixture {
	t.Helper()
	m := loader.NewManifests()
	m.Register(app.KernelPackage, loader.ManifestFunc(newKernel))

	opts := app.Options{
		Name:   "test",
		Path:   t.TempDir(),
		Loader: loader.New(loader.WithManifests(m), loader.WithLogger(logger.Nop())),
		Logger: logger.Nop(),
	}
	for _, c := range configure {
		c(&opts)
	}

	env := app.NewEnvironment()
	require.NoError(t, env.Init(opts))
	return &fixture{env: env, manifests: m}
}

// addApplication registers an application package name with def.
func (f *fixture) addApplication(name, namespace string, def app.Definition) {
	f.manifests.Register(name, loader.ManifestFunc(func(path string) loader.Loadable {
		return loader.NewPackage().
			SetPath(path).
			SetNamespace(namespace).
			Define(loader.ApplicationFile, nil).
			Define("classes/Application", returns(def))
	}))
}

func (f *fixture) load(t *testing.T, name string, def app.Definition) *app.Application {
	t.Helper()
	f.addApplication(name, name, def)
	a, err := f.env.LoadApplication(name, nil)
	require.NoError(t, err)
	return a
}

// ── Environment ───────────────────────────────────────────────────────────────

func TestInit_RequiresPath(t *testing.T) {
	err := app.NewEnvironment().Init(app.Options{})
	assert.ErrorIs(t, err, app.ErrMissingPath)
}

func TestInit_Twice(t *testing.T) {
	f := newFixture(t)
	err := f.env.Init(app.Options{Path: t.TempDir()})
	assert.ErrorIs(t, err, app.ErrAlreadyInitialized)
}

func TestInit_UnknownCorePackage(t *testing.T) {
	m := loader.NewManifests()
	m.Register(app.KernelPackage, loader.ManifestFunc(newKernel))

	err := app.NewEnvironment().Init(app.Options{
		Path:     t.TempDir(),
		Packages: []string{"missing"},
		Loader:   loader.New(loader.WithManifests(m)),
		Logger:   logger.Nop(),
	})
	assert.ErrorIs(t, err, loader.ErrManifestNotFound)
}

func TestInit_EnvironmentCallbacks(t *testing.T) {
	var calls []string
	f := newFixture(t, func(o *app.Options) {
		o.Environments = map[string]app.EnvironmentCallback{
			app.DefaultEnvironment: func(*app.Environment) func(*app.Environment) {
				calls = append(calls, "default")
				return nil
			},
			"test": func(env *app.Environment) func(*app.Environment) {
				calls = append(calls, "test")
				env.SetDebug(true)
				return func(env *app.Environment) {
					if _, err := env.Loader().Package(app.KernelPackage, loader.RankCore); err == nil {
						calls = append(calls, "finish")
					}
				}
			},
			"production": func(*app.Environment) func(*app.Environment) {
				calls = append(calls, "production")
				return nil
			},
		}
	})

	assert.Equal(t, []string{"default", "test", "finish"}, calls)
	assert.True(t, f.env.Debug())
	assert.Equal(t, "test", f.env.Name())
}

func TestInit_InvalidTimezone(t *testing.T) {
	m := loader.NewManifests()
	m.Register(app.KernelPackage, loader.ManifestFunc(newKernel))

	err := app.NewEnvironment().Init(app.Options{
		Path:     t.TempDir(),
		Timezone: "Nowhere/Atlantis",
		Loader:   loader.New(loader.WithManifests(m)),
	})
	assert.Error(t, err)
}

func TestEnvironment_PathsAndVars(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.env.AddPath("views", "/srv/views/", false))
	assert.ErrorIs(t, f.env.AddPath("views", "/other", false), app.ErrPathExists)
	require.NoError(t, f.env.AddPath("views", "/other", true))

	got, err := f.env.Path("views")
	require.NoError(t, err)
	assert.Equal(t, "/other", got)

	_, err = f.env.Path("nope")
	assert.ErrorIs(t, err, app.ErrUnknownPath)

	f.env.SetVar("greeting", "hi")
	assert.Equal(t, "hi", f.env.Var("greeting", nil))
	assert.Equal(t, 42, f.env.Var("missing", 42))
	assert.GreaterOrEqual(t, f.env.TimeElapsed().Nanoseconds(), int64(0))
}

func TestEnvironment_ApplicationClass(t *testing.T) {
	env := app.NewEnvironment()
	assert.Equal(t, "blog.Application", env.ApplicationClass("blog"))

	env.RegisterApplication("Blog", "Site.Definition")
	assert.Equal(t, "Site.Definition", env.ApplicationClass("blog"))
}

// ── Loading applications ──────────────────────────────────────────────────────

func TestLoadApplication_NotInitialized(t *testing.T) {
	_, err := app.NewEnvironment().LoadApplication("blog", nil)
	assert.ErrorIs(t, err, app.ErrNotInitialized)
}

func TestLoadApplication_Unknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.env.LoadApplication("ghost", nil)
	assert.ErrorIs(t, err, app.ErrUnknownApplication)
	assert.ErrorIs(t, err, loader.ErrManifestNotFound)
}

func TestLoadApplication_WrongDefinitionType(t *testing.T) {
	f := newFixture(t)
	f.manifests.Register("odd", loader.ManifestFunc(func(path string) loader.Loadable {
		return loader.NewPackage().SetPath(path).SetNamespace("odd").
			Define("classes/Application", returns("not a definition"))
	}))

	_, err := f.env.LoadApplication("odd", nil)
	assert.ErrorIs(t, err, app.ErrUnexpectedType)
}

func TestNew_Sequence(t *testing.T) {
	f := newFixture(t)
	f.manifests.Register("extras", loader.ManifestFunc(func(path string) loader.Loadable {
		return loader.NewPackage().SetPath(path)
	}))

	var steps []string
	def := &definition{
		BaseDefinition: app.BaseDefinition{Deps: []string{"extras"}},
		setup: func(a *app.Application) error {
			_, err := f.env.Loader().Package("extras", loader.RankPackage)
			require.NoError(t, err)
			assert.Nil(t, a.Config())
			steps = append(steps, "setup")
			return nil
		},
		routes: func(a *app.Application) error {
			require.NotNil(t, a.Config())
			steps = append(steps, "router")
			return nil
		},
	}
	f.addApplication("blog", "blog", def)

	a, err := f.env.LoadApplication("blog", func(a *app.Application) error {
		steps = append(steps, "configure")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"configure", "setup", "router"}, steps)
	assert.Equal(t, []string{app.ConfigFile}, a.Config().(*configRepo).loaded)
	assert.Same(t, f.env.Container(), a.Container().Parent())
	assert.NotNil(t, a.ErrorHandler())
	assert.NotNil(t, a.Language())
	assert.NotNil(t, a.Security())
	assert.Equal(t, notifier.AppCreated, a.Notifier().Observed()[0].Event)
}

func TestNew_SetupErrorStops(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	f.addApplication("blog", "blog", &definition{
		setup: func(*app.Application) error { return boom },
	})

	_, err := f.env.LoadApplication("blog", nil)
	assert.ErrorIs(t, err, boom)
}

// ── Routing ───────────────────────────────────────────────────────────────────

func TestExecute_DispatchesRoute(t *testing.T) {
	f := newFixture(t)
	a := f.load(t, "blog", &definition{
		routes: func(a *app.Application) error {
			_, err := a.AddRouteString("hello", "hello", app.Handler(text("Hello")))
			return err
		},
	})

	req, err := a.Request("/hello/", nil)
	require.NoError(t, err)
	assert.Equal(t, "/hello", req.URI())
	assert.Same(t, f.env.Input(), req.Input())

	require.NoError(t, a.Execute())
	require.NotNil(t, a.Response())
	assert.Equal(t, "Hello", a.Response().Body())
	assert.Equal(t, 200, a.Response().Status())

	// nothing stays active after the request
	assert.Nil(t, f.env.ActiveApplication())
	assert.Nil(t, a.ActiveRequest())
}

func TestExecute_NotifiesLifecycle(t *testing.T) {
	f := newFixture(t)
	a := f.load(t, "blog", &definition{
		routes: func(a *app.Application) error {
			_, err := a.AddRouteString("home", "/", app.Handler(text("home")))
			return err
		},
	})

	_, err := a.Request("/", nil)
	require.NoError(t, err)
	require.NoError(t, a.Execute())

	var events []string
	for _, o := range a.Notifier().Observed() {
		events = append(events, o.Event)
	}
	assert.Equal(t, []string{
		notifier.AppCreated,
		notifier.RequestCreated,
		notifier.RequestStarted,
		notifier.RequestFinished,
	}, events)
}

func TestExecute_WithoutRequest(t *testing.T) {
	f := newFixture(t)
	a := f.load(t, "blog", &definition{})
	assert.ErrorIs(t, a.Execute(), app.ErrNoRequest)
}

func TestProcessRoute_FirstMatchWins(t *testing.T) {
	f := newFixture(t)
	a := f.load(t, "blog", &definition{})

	a.AddRoute("first", &exactRoute{path: "/x", handler: text("first")})
	a.AddRoute("second", &exactRoute{path: "/x", handler: text("second")})

	handler, _, err := a.ProcessRoute("/x")
	require.NoError(t, err)
	res, err := handler(nil)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Body())
	assert.Equal(t, []string{"first", "second"}, a.Routes())
}

func TestProcessRoute_NotFound(t *testing.T) {
	f := newFixture(t)
	a := f.load(t, "blog", &definition{})

	_, err := a.Request("/nowhere", nil)
	require.NoError(t, err)
	err = a.Execute()

	var httpErr *fhttp.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 404, httpErr.StatusCode())
	assert.True(t, fhttp.IsNotFound(err))
	assert.NotEmpty(t, httpErr.RequestID)
	assert.Equal(t, 404, a.ErrorHandler().Handle(err).Status())
}

func TestRoute_ReverseLookup(t *testing.T) {
	f := newFixture(t)
	a := f.load(t, "blog", &definition{})

	route := a.AddRoute("home", &exactRoute{path: "/"})
	got, err := a.Route("home")
	require.NoError(t, err)
	assert.Same(t, route, got)

	_, err = a.Route("missing")
	assert.ErrorIs(t, err, app.ErrUnknownRoute)
}

// ── Activation ────────────────────────────────────────────────────────────────

func TestActivation_Nesting(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{})
	shop := f.load(t, "shop", &definition{})

	releaseBlog := blog.Activate()
	assert.Same(t, blog, f.env.ActiveApplication())

	releaseShop := shop.Activate()
	assert.Same(t, shop, f.env.ActiveApplication())

	releaseShop()
	assert.Same(t, blog, f.env.ActiveApplication())

	releaseBlog()
	assert.Nil(t, f.env.ActiveApplication())
}

func TestActivation_Underflow(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{})
	shop := f.load(t, "shop", &definition{})

	release := shop.Activate()
	assert.ErrorIs(t, blog.Deactivate(), app.ErrContextUnderflow)
	assert.Same(t, shop, f.env.ActiveApplication())
	release()
}

func TestActivation_ReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{})

	outer := blog.Activate()
	inner := blog.Activate()
	inner()
	inner()
	assert.Same(t, blog, f.env.ActiveApplication())

	outer()
	assert.Nil(t, f.env.ActiveApplication())
	assert.ErrorIs(t, blog.Deactivate(), app.ErrContextUnderflow)
}

func TestRun_ReleasesOnPanic(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{})

	assert.Panics(t, func() {
		_ = blog.Run(func() error { panic("handler exploded") })
	})
	assert.Nil(t, f.env.ActiveApplication())
}

func TestExecute_ReleasesRequestOnPanic(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{
		routes: func(a *app.Application) error {
			a.AddRoute("explode", &exactRoute{path: "/explode", handler: func([]string) (fhttp.Responsible, error) {
				panic("controller exploded")
			}})
			return nil
		},
	})

	_, err := blog.Request("/explode", nil)
	require.NoError(t, err)

	assert.Panics(t, func() { _ = blog.Execute() })
	assert.Nil(t, blog.ActiveRequest())
	assert.Nil(t, f.env.ActiveRequest())
	assert.Nil(t, f.env.ActiveApplication())
}

func TestExecute_SubRequestPanicRestoresParent(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{
		routes: func(a *app.Application) error {
			a.AddRoute("explode", &exactRoute{path: "/explode", handler: func([]string) (fhttp.Responsible, error) {
				panic("widget exploded")
			}})
			return nil
		},
	})

	parent, err := blog.Request("/", nil)
	require.NoError(t, err)
	release := parent.Activate()
	defer release()

	sub, err := container.ForgeAs[*app.Request](blog.Container(), "Request", "/explode", (*fhttp.Input)(nil))
	require.NoError(t, err)

	assert.Panics(t, func() { _ = sub.Execute() })
	assert.Same(t, parent, blog.ActiveRequest())
}

func TestRun_ReleasesOnError(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{})
	boom := errors.New("boom")

	err := blog.Run(func() error {
		assert.Same(t, blog, f.env.ActiveApplication())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, f.env.ActiveApplication())
}

func TestRequest_Underflow(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{})

	req, err := blog.Request("/", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, req.Deactivate(), app.ErrContextUnderflow)
}

func TestRequest_SubRequestBecomesDescendant(t *testing.T) {
	f := newFixture(t)

	var sub *app.Request
	blog := f.load(t, "blog", &definition{
		routes: func(a *app.Application) error {
			a.AddRoute("widget", &exactRoute{path: "/widget", handler: text("widget")})
			a.AddRoute("page", &exactRoute{path: "/page", handler: func([]string) (fhttp.Responsible, error) {
				var err error
				sub, err = container.ForgeAs[*app.Request](a.Container(), "Request", "widget", (*fhttp.Input)(nil))
				if err != nil {
					return nil, err
				}
				if err := sub.Execute(); err != nil {
					return nil, err
				}
				assert.Same(t, sub.Parent(), a.ActiveRequest())
				return fhttp.NewResponse("page+"+sub.Response().Body(), 200, nil), nil
			}})
			return nil
		},
	})

	page, err := blog.Request("/page", nil)
	require.NoError(t, err)
	require.NoError(t, blog.Execute())

	assert.Equal(t, "page+widget", blog.Response().Body())
	require.NotNil(t, sub)
	assert.Same(t, page, sub.Parent())
	assert.Equal(t, []*app.Request{sub}, page.Descendants())
	assert.Same(t, page.Input(), sub.Input())
	assert.NotEqual(t, page.ID(), sub.ID())
}

func TestRequest_OwnInputFallsBackOnParent(t *testing.T) {
	f := newFixture(t)
	blog := f.load(t, "blog", &definition{})

	parent, err := blog.Request("/", fhttp.NewCLIInput("GET", "/", map[string]string{"lang": "nl"}))
	require.NoError(t, err)

	release := parent.Activate()
	defer release()

	child, err := container.ForgeAs[*app.Request](blog.Container(), "Request", "/x", fhttp.NewCLIInput("POST", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, "POST", child.Input().Method())
	assert.Equal(t, "nl", child.Input().Param("lang"))
}
