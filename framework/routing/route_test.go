package routing_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/km-arc/go-fuel/framework/app"
	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// recorder is a routable controller remembering its segments.
type recorder struct {
	name     string
	segments []string
}

func (r *recorder) Router(segments []string) (fhttp.Responsible, error) {
	r.segments = segments
	return fhttp.NewResponse(r.name, 200, nil), nil
}

// fakeApp knows a fixed set of controller paths.
type fakeApp struct {
	method      string
	controllers map[string]*recorder
	forgeErr    error
	forged      []string
}

func newApp(method string, paths ...string) *fakeApp {
	f := &fakeApp{method: method, controllers: make(map[string]*recorder)}
	for _, p := range paths {
		f.controllers[p] = &recorder{name: p}
	}
	return f
}

func (f *fakeApp) ActiveRequest() *app.Request {
	return app.NewRequest("/", fhttp.NewCLIInput(f.method, "/", nil))
}

func (f *fakeApp) FindClass(kind, path string) (string, bool) {
	if kind != routing.ControllerKind {
		return "", false
	}
	_, ok := f.controllers[strings.ToLower(path)]
	return "Controller." + strings.ReplaceAll(path, "/", "_"), ok
}

func (f *fakeApp) Forge(class string, args ...any) (any, error) {
	f.forged = append(f.forged, class)
	if f.forgeErr != nil {
		return nil, f.forgeErr
	}
	if class == "Response" {
		return fhttp.NewResponse(args[0].(string), 200, nil), nil
	}
	path := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(class, "Controller."), "_", "/"))
	return f.controllers[path], nil
}

func (f *fakeApp) Notify(string, any, string) {}

func mustRoute(t *testing.T, search string, translation any, methods ...string) *routing.Route {
	t.Helper()
	r, err := routing.New(search, translation, methods...)
	if err != nil {
		t.Fatalf("routing.New(%q): %v", search, err)
	}
	return r
}

func call(t *testing.T, r *routing.Route) string {
	t.Helper()
	handler, segments := r.Match()
	if handler == nil {
		t.Fatal("no handler after match")
	}
	res, err := handler(segments)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return res.Body()
}

// ── Construction ──────────────────────────────────────────────────────────────

func TestNew_MethodPrefix(t *testing.T) {
	r := mustRoute(t, "GET|POST users/", nil, "post", "put")

	if r.Search() != "/users" {
		t.Errorf("search: got %q want /users", r.Search())
	}
	if want := []string{"GET", "POST", "PUT"}; !slices.Equal(r.Methods(), want) {
		t.Errorf("methods: got %v want %v", r.Methods(), want)
	}
	if r.Translation() != "/users" {
		t.Errorf("translation defaults to search: got %v", r.Translation())
	}
}

func TestNew_NotAMethodPrefix(t *testing.T) {
	r := mustRoute(t, "get lost", nil)
	if len(r.Methods()) != 0 {
		t.Errorf("lowercase prefix must not be taken as methods: %v", r.Methods())
	}
	if r.Search() != "/get lost" {
		t.Errorf("search: got %q", r.Search())
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := routing.New("blog/(", nil); err == nil {
		t.Error("invalid pattern: want error")
	}
	if _, err := routing.New("blog", 42); !errors.Is(err, routing.ErrInvalidTranslation) {
		t.Errorf("invalid translation: got %v", err)
	}
}

// ── Method gate ───────────────────────────────────────────────────────────────

func TestMatches_MethodGate(t *testing.T) {
	r := mustRoute(t, "POST /users", nil)

	if r.Bind(newApp("GET", "users")).Matches("/users") {
		t.Error("GET /users must not match a POST route")
	}
	if !r.Bind(newApp("POST", "users")).Matches("/users") {
		t.Error("POST /users must match")
	}
}

func TestMatches_AnyMethod(t *testing.T) {
	r := mustRoute(t, "/users", nil)
	for _, m := range []string{"GET", "POST", "DELETE"} {
		if !r.Bind(newApp(m, "users")).Matches("/users") {
			t.Errorf("%s /users must match a route without methods", m)
		}
	}
}

// ── Patterns ──────────────────────────────────────────────────────────────────

func TestMatches_RightShrink(t *testing.T) {
	a := newApp("GET", "blog")
	r := mustRoute(t, "/blog/2024/01/title", nil).Bind(a)

	if !r.Matches("/blog/2024/01/title") {
		t.Fatal("want match")
	}
	_, segments := r.Match()
	if want := []string{"2024", "01", "title"}; !slices.Equal(segments, want) {
		t.Errorf("segments: got %v want %v", segments, want)
	}
	if body := call(t, r); body != "blog" {
		t.Errorf("controller: got %q want blog", body)
	}
}

func TestMatches_MostSpecificControllerWins(t *testing.T) {
	a := newApp("GET", "blog", "blog/archive")
	r := mustRoute(t, "/blog/archive/2024", nil).Bind(a)

	if !r.Matches("/blog/archive/2024") {
		t.Fatal("want match")
	}
	if body := call(t, r); body != "blog/archive" {
		t.Errorf("controller: got %q want blog/archive", body)
	}
	if got := a.controllers["blog/archive"].segments; !slices.Equal(got, []string{"2024"}) {
		t.Errorf("segments: got %v", got)
	}
}

func TestMatches_Backreferences(t *testing.T) {
	a := newApp("GET", "blog")
	r := mustRoute(t, `post/(\d+)`, "blog/view/$1").Bind(a)

	if r.Matches("/post/abc") {
		t.Error("non numeric id must not match")
	}
	if !r.Matches("/post/12") {
		t.Fatal("want match")
	}
	_, segments := r.Match()
	if want := []string{"view", "12"}; !slices.Equal(segments, want) {
		t.Errorf("segments: got %v want %v", segments, want)
	}
}

func TestMatches_Anchored(t *testing.T) {
	r := mustRoute(t, "blog", nil).Bind(newApp("GET", "blog"))
	if r.Matches("/blog/extra") || r.Matches("/my/blog") {
		t.Error("search must match the whole uri")
	}
}

func TestMatches_NoController(t *testing.T) {
	r := mustRoute(t, "shop/cart", nil).Bind(newApp("GET", "blog"))
	if r.Matches("/shop/cart") {
		t.Error("no controller: want no match")
	}
}

func TestMatches_FailureKeepsPreviousMatch(t *testing.T) {
	a := newApp("GET", "blog")
	r := mustRoute(t, "blog/(.*)", "blog/$1").Bind(a)

	if !r.Matches("/blog/a/b") {
		t.Fatal("want match")
	}
	if r.Matches("/other") {
		t.Fatal("want no match")
	}
	_, segments := r.Match()
	if !slices.Equal(segments, []string{"a", "b"}) {
		t.Errorf("segments changed by failed match: %v", segments)
	}
}

func TestMatches_HandlerTranslation(t *testing.T) {
	pong := func([]string) (fhttp.Responsible, error) {
		return fhttp.NewResponse("pong", 200, nil), nil
	}
	r := mustRoute(t, "ping", pong)

	if !r.Matches("/ping") {
		t.Fatal("handler translation must match without an application")
	}
	if body := call(t, r); body != "pong" {
		t.Errorf("body: got %q want pong", body)
	}
}

func TestMatches_ForgeErrorSurfacesFromHandler(t *testing.T) {
	a := newApp("GET", "blog")
	a.forgeErr = errors.New("broken constructor")
	r := mustRoute(t, "blog", nil).Bind(a)

	if !r.Matches("/blog") {
		t.Fatal("a found class must match even if forging fails")
	}
	handler, segments := r.Match()
	if _, err := handler(segments); !errors.Is(err, a.forgeErr) {
		t.Errorf("handler error: got %v", err)
	}
}

func TestLiteral_QuotesMetacharacters(t *testing.T) {
	a := newApp("GET", "files")
	r, err := routing.Literal("files/a+b")
	if err != nil {
		t.Fatal(err)
	}
	r.Bind(a)

	if r.Matches("/files/aab") {
		t.Error("literal route must not interpret +")
	}
	if !r.Matches("/files/a+b") {
		t.Fatal("want match")
	}
	_, segments := r.Match()
	if !slices.Equal(segments, []string{"a+b"}) {
		t.Errorf("segments: got %v", segments)
	}
}

// ── Predicates ────────────────────────────────────────────────────────────────

func TestPredicate(t *testing.T) {
	a := newApp("GET", "welcome")
	r, err := routing.NewPredicate(func(uri string, req *app.Request) (any, bool) {
		name, ok := strings.CutPrefix(uri, "/hello/")
		if req == nil || req.Input().Method() != "GET" {
			return nil, false
		}
		return "/welcome/hello/" + name, ok
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Bind(a)

	if r.Matches("/bye/World") {
		t.Error("predicate rejected the uri")
	}
	if !r.Matches("/hello/World") {
		t.Fatal("want match")
	}
	_, segments := r.Match()
	if want := []string{"hello", "World"}; !slices.Equal(segments, want) {
		t.Errorf("segments: got %v want %v", segments, want)
	}
}

func TestPredicate_TrueUsesConfiguredTranslation(t *testing.T) {
	a := newApp("GET", "home")
	r, err := routing.NewPredicate(func(uri string, _ *app.Request) (any, bool) {
		return nil, uri == "/"
	}, "home/index")
	if err != nil {
		t.Fatal(err)
	}
	r.Bind(a)

	if !r.Matches("/") {
		t.Fatal("want match")
	}
	_, segments := r.Match()
	if !slices.Equal(segments, []string{"index"}) {
		t.Errorf("segments: got %v", segments)
	}
}

// ── Resolvers ─────────────────────────────────────────────────────────────────

func TestExactResolver(t *testing.T) {
	a := newApp("GET", "blog")
	r := mustRoute(t, "blog(/.*)?", "blog$1").Bind(a).SetResolver(routing.ExactResolver{})

	if r.Matches("/blog/2024") {
		t.Error("exact resolver must not shrink")
	}
	if !r.Matches("/blog") {
		t.Fatal("want match")
	}
	if _, segments := r.Match(); len(segments) != 0 {
		t.Errorf("segments: got %v", segments)
	}
}

func TestShrinkResolver(t *testing.T) {
	a := newApp("GET", "admin/users")

	tests := []struct {
		path     string
		class    string
		segments []string
		ok       bool
	}{
		{"/admin/users/edit/3", "Controller.admin_users", []string{"edit", "3"}, true},
		{"admin/users", "Controller.admin_users", []string{}, true},
		{"/admin", "", nil, false},
		{"/", "", nil, false},
	}

	for _, tt := range tests {
		class, segments, ok := routing.ShrinkResolver{}.Resolve(a, tt.path)
		if ok != tt.ok || class != tt.class || !slices.Equal(segments, tt.segments) {
			t.Errorf("Resolve(%q) = %q, %v, %v; want %q, %v, %v", tt.path, class, segments, ok, tt.class, tt.segments, tt.ok)
		}
	}
}
