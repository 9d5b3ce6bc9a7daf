package app

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/km-arc/go-fuel/framework/container"
	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/loader"
	"github.com/km-arc/go-fuel/framework/notifier"
)

// KernelPackage is the core package every environment loads first.
const KernelPackage = "kernel"

// DefaultEnvironment is the environment callback run for every environment name.
const DefaultEnvironment = "__default"

// EnvironmentCallback configures the environment during Init. A returned
// non-nil func runs after the core packages are loaded.
type EnvironmentCallback func(env *Environment) func(env *Environment)

// Options configures Environment.Init.
type Options struct {
	// Name of the environment: development, production, test...
	Name string

	// Path is the directory packages are loaded from. Either Path or
	// Paths["fuel"] is required.
	Path  string
	Paths map[string]string

	BaseURL  string
	Language string
	Locale   string
	Timezone string
	Encoding string
	Debug    bool

	// Packages are loaded as core packages after the kernel.
	Packages []string

	// Environments holds the callbacks run for DefaultEnvironment and Name.
	Environments map[string]EnvironmentCallback

	// Optional replacements of the defaults.
	Input  *fhttp.Input
	Loader *loader.Loader
	Logger *slog.Logger
}

// Environment is the root context shared by every application: the root
// container, the loader and the active application.
type Environment struct {
	mu          sync.RWMutex
	initialized bool

	name     string
	baseURL  string
	language string
	locale   string
	timezone *time.Location
	encoding string
	debug    bool

	paths map[string]string
	vars  map[string]any
	apps  map[string]string

	input    *fhttp.Input
	loader   *loader.Loader
	dic      *container.Container
	log      *slog.Logger
	notifier *notifier.Notifier

	active *Application
}

// NewEnvironment creates an uninitialized environment and records its start
// time.
func NewEnvironment() *Environment {
	return &Environment{
		name:     "development",
		language: "en",
		encoding: "UTF-8",
		timezone: time.UTC,
		paths:    make(map[string]string),
		vars:     map[string]any{"init_time": time.Now()},
		apps:     make(map[string]string),
		notifier: notifier.New(),
		log:      slog.Default(),
	}
}

// Init configures the environment once: it runs the environment callbacks,
// sets up the root container and loader, and loads the core packages.
func (env *Environment) Init(opts Options) error {
	if env.initialized {
		return ErrAlreadyInitialized
	}

	fuel := opts.Path
	if fuel == "" {
		fuel = opts.Paths["fuel"]
	}
	if fuel == "" {
		return ErrMissingPath
	}
	for name, path := range opts.Paths {
		env.paths[name] = cleanPath(path)
	}
	env.paths["fuel"] = cleanPath(fuel)

	if opts.Name != "" {
		env.name = opts.Name
	}

	var finish []func(*Environment)
	for _, key := range []string{DefaultEnvironment, env.name} {
		if cb, ok := opts.Environments[key]; ok && cb != nil {
			if done := cb(env); done != nil {
				finish = append(finish, done)
			}
		}
	}

	if opts.BaseURL != "" {
		env.baseURL = opts.BaseURL
	}
	if opts.Language != "" {
		env.language = opts.Language
	}
	if opts.Locale != "" {
		env.locale = opts.Locale
	}
	if opts.Encoding != "" {
		env.encoding = opts.Encoding
	}
	env.debug = env.debug || opts.Debug
	if opts.Timezone != "" {
		loc, err := time.LoadLocation(opts.Timezone)
		if err != nil {
			return fmt.Errorf("app: timezone %q: %w", opts.Timezone, err)
		}
		env.timezone = loc
	}
	if opts.Logger != nil {
		env.log = opts.Logger
	}

	env.input = opts.Input
	if env.input == nil {
		env.input = fhttp.NewCLIInput("GET", "/", nil)
	}

	env.loader = opts.Loader
	if env.loader == nil {
		env.loader = loader.New(loader.WithLogger(env.log), loader.WithBasePath(env.paths["fuel"]))
	} else if env.loader.BasePath() == "" {
		env.loader.SetBasePath(env.paths["fuel"])
	}
	env.loader.OnPackageLoaded(env.packageLoaded)

	env.dic = container.New(env.loader, env, nil)

	for _, pkg := range append([]string{KernelPackage}, opts.Packages...) {
		if _, err := env.loader.LoadPackage(pkg, loader.RankCore); err != nil {
			return fmt.Errorf("app: loading core package %q: %w", pkg, err)
		}
	}

	for _, done := range finish {
		done(env)
	}

	env.initialized = true
	env.log.Debug("environment initialized", slog.String("environment", env.name), slog.String("path", env.paths["fuel"]))
	return nil
}

// packageLoaded hands the environment to packages that want it.
func (env *Environment) packageLoaded(name string, rank loader.Rank, pkg loader.Loadable) {
	if ea, ok := pkg.(EnvironmentAware); ok {
		ea.SetEnvironment(env)
	}
	env.notifier.Notify(notifier.PackageLoaded, pkg, name+"@"+rank.String())
}

// Inject implements container.Injector for the root container.
func (env *Environment) Inject(instance any) {
	if ea, ok := instance.(EnvironmentAware); ok {
		ea.SetEnvironment(env)
	}
}

// ── Accessors ─────────────────────────────────────────────────────────────────

func (env *Environment) Initialized() bool               { return env.initialized }
func (env *Environment) Name() string                    { return env.name }
func (env *Environment) BaseURL() string                 { return env.baseURL }
func (env *Environment) Language() string                { return env.language }
func (env *Environment) Locale() string                  { return env.locale }
func (env *Environment) Timezone() *time.Location        { return env.timezone }
func (env *Environment) Encoding() string                { return env.encoding }
func (env *Environment) Debug() bool                     { return env.debug }
func (env *Environment) Input() *fhttp.Input             { return env.input }
func (env *Environment) Loader() *loader.Loader          { return env.loader }
func (env *Environment) Container() *container.Container { return env.dic }
func (env *Environment) Logger() *slog.Logger            { return env.log }
func (env *Environment) Notifier() *notifier.Notifier    { return env.notifier }

// SetDebug toggles debug mode, usually from an environment callback.
func (env *Environment) SetDebug(debug bool) { env.debug = debug }

// ── Paths & vars ──────────────────────────────────────────────────────────────

// Path returns the path registered under name.
func (env *Environment) Path(name string) (string, error) {
	env.mu.RLock()
	defer env.mu.RUnlock()
	path, ok := env.paths[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPath, name)
	}
	return path, nil
}

// AddPath registers a named path.
func (env *Environment) AddPath(name, path string, overwrite bool) error {
	env.mu.Lock()
	defer env.mu.Unlock()
	if _, ok := env.paths[name]; ok && !overwrite {
		return fmt.Errorf("%w: %s", ErrPathExists, name)
	}
	env.paths[name] = cleanPath(path)
	return nil
}

// Var returns a global variable or fallback.
func (env *Environment) Var(name string, fallback any) any {
	env.mu.RLock()
	defer env.mu.RUnlock()
	if v, ok := env.vars[name]; ok && v != nil {
		return v
	}
	return fallback
}

// SetVar sets a global variable.
func (env *Environment) SetVar(name string, value any) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.vars[name] = value
}

// TimeElapsed returns the time since the environment was created.
func (env *Environment) TimeElapsed() time.Duration {
	start, _ := env.Var("init_time", time.Time{}).(time.Time)
	return time.Since(start)
}

// ── Applications ──────────────────────────────────────────────────────────────

// RegisterApplication sets the class forged as definition of the
// application name. Without registration "<name>.Application" is used.
func (env *Environment) RegisterApplication(name, class string) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.apps[strings.ToLower(name)] = class
}

// ApplicationClass returns the definition class of the application name.
func (env *Environment) ApplicationClass(name string) string {
	env.mu.RLock()
	defer env.mu.RUnlock()
	if class, ok := env.apps[strings.ToLower(name)]; ok {
		return class
	}
	return name + loader.NamespaceSeparator + "Application"
}

// LoadApplication loads the application package name and creates the
// application from its definition class.
//
//	blog, err := env.LoadApplication("blog", func(a *app.Application) error {
//	    a.Container().SetClass("View", "Blog.View")
//	    return nil
//	})
func (env *Environment) LoadApplication(name string, configure func(*Application) error) (*Application, error) {
	if !env.initialized {
		return nil, ErrNotInitialized
	}

	pkg, err := env.loader.LoadPackage(name, loader.RankApp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownApplication, name, err)
	}
	pkg.SetRoutable(true)

	class := env.ApplicationClass(name)
	instance, err := env.Forge(class)
	if errors.Is(err, container.ErrClassNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownApplication, name, err)
	}
	if err != nil {
		return nil, err
	}

	def, ok := instance.(Definition)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want app.Definition", ErrUnexpectedType, class, instance)
	}
	return New(env, name, def, pkg, configure)
}

// ActiveApplication returns the application currently active, or nil.
func (env *Environment) ActiveApplication() *Application {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return env.active
}

// ActiveRequest returns the active request of the active application, or nil.
func (env *Environment) ActiveRequest() *Request {
	if a := env.ActiveApplication(); a != nil {
		return a.ActiveRequest()
	}
	return nil
}

func (env *Environment) setActive(a *Application) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.active = a
}

// ── Container shortcuts ───────────────────────────────────────────────────────

// Class translates a classname through the root container.
func (env *Environment) Class(name string) string { return env.dic.Class(name) }

// Forge forges a class through the root container.
func (env *Environment) Forge(class string, args ...any) (any, error) {
	if env.dic == nil {
		return nil, ErrNotInitialized
	}
	return env.dic.Forge(class, args...)
}

// Object fetches an instance from the root container.
func (env *Environment) Object(class string, name ...string) (any, error) {
	if env.dic == nil {
		return nil, ErrNotInitialized
	}
	return env.dic.Object(class, name...)
}

func cleanPath(path string) string {
	return filepath.Clean(path)
}

var _ container.Injector = (*Environment)(nil)
