package routing

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/km-arc/go-fuel/framework/app"
	"github.com/km-arc/go-fuel/framework/controller"
	fhttp "github.com/km-arc/go-fuel/framework/http"
)

// Methods a search pattern may start with: "GET|POST /users".
var httpMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

// ErrInvalidTranslation is returned for a translation that is neither a
// path nor a handler.
var ErrInvalidTranslation = errors.New("routing: translation must be a string or app.Handler")

var backref = regexp.MustCompile(`\$(\d+)`)

// Predicate decides whether a route matches uri. A nil or empty translation
// with true keeps the translation the route was created with.
type Predicate func(uri string, req *app.Request) (translation any, ok bool)

// Owner is what a route needs from its application.
type Owner interface {
	controller.Owner
	ClassFinder
	ActiveRequest() *app.Request
}

// Route maps a search pattern onto a translation. The pattern is an anchored
// regular expression whose groups can be used in the translation:
//
//	route, _ := routing.New("GET blog/(\\d+)", "blog/view/$1")
//	route.Matches("/blog/12") // Blog controller, segments [view 12]
//
// A translation may also be an app.Handler, which is called directly.
type Route struct {
	search      string
	re          *regexp.Regexp
	predicate   Predicate
	translation any
	methods     []string

	owner    Owner
	resolver Resolver
	log      *slog.Logger

	handler  app.Handler
	segments []string
}

// New creates a route for search. A nil translation routes to the search path
// itself; extra methods are merged with those prefixed to search.
func New(search string, translation any, methods ...string) (*Route, error) {
	prefixed, search := splitMethods(search)
	r := &Route{
		search:   normalize(search),
		methods:  mergeMethods(prefixed, methods),
		resolver: ShrinkResolver{},
		log:      slog.Default(),
	}

	re, err := regexp.Compile("^(?:" + r.search + ")$")
	if err != nil {
		return nil, fmt.Errorf("routing: search %q: %w", search, err)
	}
	r.re = re

	if translation == nil {
		translation = r.search
	}
	if r.translation, err = normalizeTranslation(translation); err != nil {
		return nil, err
	}
	return r, nil
}

// Literal creates a route matching path exactly, regexp metacharacters
// included. It is the convention route tried when no registered route
// matches.
func Literal(path string) (*Route, error) {
	path = normalize(path)
	r, err := New(regexp.QuoteMeta(path), nil)
	if err != nil {
		return nil, err
	}
	r.translation = strings.ReplaceAll(path, "$", "$$")
	return r, nil
}

// NewPredicate creates a route matched by fn.
//
//	routing.NewPredicate(func(uri string, _ *app.Request) (any, bool) {
//	    name, ok := strings.CutPrefix(uri, "/hello/")
//	    return "/welcome/hello/" + name, ok
//	}, nil)
func NewPredicate(fn Predicate, translation any, methods ...string) (*Route, error) {
	r := &Route{
		predicate: fn,
		methods:   mergeMethods(nil, methods),
		resolver:  ShrinkResolver{},
		log:       slog.Default(),
	}
	var err error
	if translation != nil {
		if r.translation, err = normalizeTranslation(translation); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SetApplication implements app.ApplicationAware.
func (r *Route) SetApplication(a *app.Application) {
	r.owner = a
	r.log = a.Logger()
}

// Bind sets the owner of a route created outside of a container.
func (r *Route) Bind(owner Owner) *Route {
	r.owner = owner
	return r
}

// SetResolver replaces the controller resolution strategy.
func (r *Route) SetResolver(resolver Resolver) *Route {
	r.resolver = resolver
	return r
}

func (r *Route) Search() string     { return r.search }
func (r *Route) Translation() any   { return r.translation }
func (r *Route) Methods() []string  { return slices.Clone(r.methods) }
func (r *Route) Resolver() Resolver { return r.resolver }

// ── Matching ──────────────────────────────────────────────────────────────────

// Matches implements app.Route. A failed match leaves the previous match in
// place.
func (r *Route) Matches(uri string) bool {
	var req *app.Request
	if r.owner != nil {
		req = r.owner.ActiveRequest()
	}
	if len(r.methods) > 0 && !slices.Contains(r.methods, method(req)) {
		return false
	}

	var translation any
	switch {
	case r.predicate != nil:
		t, ok := r.predicate(uri, req)
		if !ok {
			return false
		}
		translation = r.translation
		if t != nil && t != "" {
			translation = t
		}
	case r.re.MatchString(uri):
		translation = r.translation
		if s, ok := r.translation.(string); ok {
			translation = r.re.ReplaceAllString(uri, s)
		}
	default:
		return false
	}

	return r.parse(translation)
}

// parse resolves translation into a handler.
func (r *Route) parse(translation any) bool {
	switch t := translation.(type) {
	case app.Handler:
		r.handler, r.segments = t, nil
		return true
	case func([]string) (fhttp.Responsible, error):
		r.handler, r.segments = t, nil
		return true
	case string:
		return r.parseString(t)
	}
	return false
}

func (r *Route) parseString(path string) bool {
	if r.owner == nil {
		return false
	}
	class, segments, ok := r.resolver.Resolve(r.owner, path)
	if !ok {
		return false
	}

	instance, err := r.owner.Forge(class)
	if err != nil {
		// the class was found, so this is not a routing miss
		r.log.Error("controller forge failed", slog.String("class", class), slog.Any("error", err))
		r.handler = func([]string) (fhttp.Responsible, error) {
			return nil, fmt.Errorf("routing: forging %s: %w", class, err)
		}
		r.segments = segments
		return true
	}

	r.log.Debug("route matched", slog.String("search", r.search), slog.String("controller", class), slog.Any("segments", segments))
	r.handler = controller.Handler(r.owner, instance)
	r.segments = segments
	return true
}

// Match implements app.Route.
func (r *Route) Match() (app.Handler, []string) {
	return r.handler, slices.Clone(r.segments)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func method(req *app.Request) string {
	if req == nil || req.Input() == nil {
		return http.MethodGet
	}
	return strings.ToUpper(req.Input().Method())
}

// splitMethods takes the "GET|POST " prefix off search.
func splitMethods(search string) ([]string, string) {
	head, rest, ok := strings.Cut(search, " ")
	if !ok {
		return nil, search
	}
	var found []string
	for _, m := range strings.Split(head, "|") {
		if m == "" {
			continue
		}
		if !slices.Contains(httpMethods, m) {
			return nil, search
		}
		found = append(found, m)
	}
	if len(found) == 0 {
		return nil, search
	}
	return found, rest
}

func mergeMethods(lists ...[]string) []string {
	var merged []string
	for _, list := range lists {
		for _, m := range list {
			m = strings.ToUpper(m)
			if !slices.Contains(merged, m) {
				merged = append(merged, m)
			}
		}
	}
	return merged
}

func normalize(path string) string {
	return "/" + strings.Trim(path, "/ ")
}

func normalizeTranslation(translation any) (any, error) {
	switch t := translation.(type) {
	case string:
		// $1 → ${1} so a backreference may be followed by letters
		return backref.ReplaceAllString(normalize(t), "$${$1}"), nil
	case app.Handler:
		return t, nil
	case func([]string) (fhttp.Responsible, error):
		return app.Handler(t), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidTranslation, translation)
}

var _ app.Route = (*Route)(nil)
