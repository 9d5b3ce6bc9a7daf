package kernel

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/km-arc/go-fuel/framework/app"
	"github.com/km-arc/go-fuel/framework/data"
	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/loader"
	"github.com/km-arc/go-fuel/framework/notifier"
	"github.com/km-arc/go-fuel/framework/routing"
	"github.com/km-arc/go-fuel/framework/security"
	"github.com/km-arc/go-fuel/framework/view"
)

// Namespace is the namespace of the kernel classes.
const Namespace = "Kernel"

// ErrInvalidArguments is returned by a kernel constructor called with
// arguments of the wrong type.
var ErrInvalidArguments = errors.New("kernel: invalid constructor arguments")

// Classes maps the root container names onto the kernel classes. Every
// environment starts with these translations; applications override them in
// their own container.
var Classes = map[string]string{
	"Config":                "Kernel.Data.Config",
	"Error":                 "Kernel.Error",
	"Language":              "Kernel.Data.Language",
	"Notifier":              "Kernel.Notifier",
	"Package":               "Kernel.Package",
	"Parser":                "Kernel.Parser.Template",
	"Parser:Markdown":       "Kernel.Parser.Markdown",
	"Request":               "Kernel.Request",
	"Response":              "Kernel.Response",
	"Route":                 "Kernel.Route",
	"Security":              "Kernel.Security",
	"Security_String":       "Kernel.Security.String.Htmlentities",
	"Security_String:Strip": "Kernel.Security.String.Strip",
	"Security_String:Safe":  "Kernel.Security.String.Safe",
	"View":                  "Kernel.View",
}

func init() {
	loader.RegisterManifest(app.KernelPackage, loader.ManifestFunc(NewPackage))
}

// Package is the core package. Loading it into an environment sets the root
// class translations and the "kernel" path.
type Package struct {
	*loader.Package
}

// NewPackage builds the kernel package rooted at path.
func NewPackage(path string) loader.Loadable {
	pkg := loader.NewPackage().
		SetPath(path).
		SetNamespace(Namespace).
		Define("classes/Data/Config", newConfig).
		Define("classes/Data/Language", newLanguage).
		Define("classes/Error", newErrorHandler).
		Define("classes/Notifier", newNotifier).
		Define("classes/Package", newPackage).
		Define("classes/Parser/Template", newTemplate).
		Define("classes/Parser/Markdown", newMarkdown).
		Define("classes/Request", newRequest).
		Define("classes/Response", newResponse).
		Define("classes/Route", newRoute).
		Define("classes/Security", newSecurity).
		Define("classes/Security/String/Htmlentities", cleaner(security.Htmlentities{})).
		Define("classes/Security/String/Strip", cleaner(security.Strip{})).
		Define("classes/Security/String/Safe", cleaner(security.Safe{})).
		Define("classes/View", newView)
	return &Package{Package: pkg}
}

// SetEnvironment implements app.EnvironmentAware.
func (p *Package) SetEnvironment(env *app.Environment) {
	env.Container().SetClasses(Classes)
	if err := env.AddPath(app.KernelPackage, p.Path(), true); err != nil {
		env.Logger().Warn("kernel path not registered", slog.Any("error", err))
	}
}

// ── Constructors ──────────────────────────────────────────────────────────────

func newConfig(...any) (any, error)   { return data.NewConfig(), nil }
func newLanguage(...any) (any, error) { return data.NewLanguage(), nil }
func newNotifier(...any) (any, error) { return notifier.New(), nil }
func newTemplate(...any) (any, error) { return view.NewTemplate(nil), nil }
func newMarkdown(...any) (any, error) { return view.NewMarkdown(nil), nil }
func newSecurity(...any) (any, error) { return security.New(), nil }

func newErrorHandler(...any) (any, error) { return NewErrorHandler(), nil }

func cleaner(c security.Cleaner) func(...any) (any, error) {
	return func(...any) (any, error) { return c, nil }
}

// newPackage builds an empty package, rooted at the optional path argument.
func newPackage(args ...any) (any, error) {
	path, err := arg(args, 0, "")
	if err != nil {
		return nil, err
	}
	pkg := loader.NewPackage()
	if path != "" {
		pkg.SetPath(path)
	}
	return pkg, nil
}

// newRequest takes (uri string[, input *fhttp.Input]).
func newRequest(args ...any) (any, error) {
	uri, err := arg(args, 0, "")
	if err != nil {
		return nil, err
	}
	input, err := arg[*fhttp.Input](args, 1, nil)
	if err != nil {
		return nil, err
	}
	return app.NewRequest(uri, input), nil
}

// newResponse takes ([body string[, status int[, headers map[string]string]]]).
func newResponse(args ...any) (any, error) {
	body, err := arg(args, 0, "")
	if err != nil {
		return nil, err
	}
	status, err := arg(args, 1, 200)
	if err != nil {
		return nil, err
	}
	headers, err := arg[map[string]string](args, 2, nil)
	if err != nil {
		return nil, err
	}
	return fhttp.NewResponse(body, status, headers), nil
}

// newRoute takes (pattern string, translation any, methods []string). With
// the pattern alone the route matches that literal path.
func newRoute(args ...any) (any, error) {
	pattern, err := arg(args, 0, "")
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return routing.Literal(pattern)
	}
	var translation any
	if len(args) > 1 {
		translation = args[1]
	}
	methods, err := arg[[]string](args, 2, nil)
	if err != nil {
		return nil, err
	}
	return routing.New(pattern, translation, methods...)
}

// newView takes ([file string[, data map[string]any]]).
func newView(args ...any) (any, error) {
	file, err := arg(args, 0, "")
	if err != nil {
		return nil, err
	}
	values, err := arg[map[string]any](args, 1, nil)
	if err != nil {
		return nil, err
	}
	return view.New(file, values), nil
}

// arg returns args[i] as T, fallback when absent or nil.
func arg[T any](args []any, i int, fallback T) (T, error) {
	if i >= len(args) || args[i] == nil {
		return fallback, nil
	}
	v, ok := args[i].(T)
	if !ok {
		return fallback, fmt.Errorf("%w: argument %d is %T, want %T", ErrInvalidArguments, i, args[i], fallback)
	}
	return v, nil
}

var (
	_ app.EnvironmentAware = (*Package)(nil)
	_ loader.Loadable      = (*Package)(nil)
)
