package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/notifier"
)

// Request is one routing pass of an application. Requests forged while
// another request is active become its descendants (HMVC sub-requests).
type Request struct {
	mu sync.RWMutex

	id    string
	uri   string
	input *fhttp.Input
	ctx   context.Context

	app         *Application
	parent      *Request
	descendants []*Request

	// requests active before each Activate
	before []*Request

	response fhttp.Responsible
}

// NewRequest creates a request for uri. The input may be nil; it then
// defaults to the parent request's input or the environment input once the
// request is bound to an application.
func NewRequest(uri string, input *fhttp.Input) *Request {
	return &Request{
		id:    uuid.NewString(),
		uri:   "/" + strings.Trim(uri, "/ "),
		input: input,
		ctx:   context.Background(),
	}
}

// SetApplication implements ApplicationAware. The request active in a at
// this point becomes the parent.
func (r *Request) SetApplication(a *Application) {
	parent := a.ActiveRequest()

	r.mu.Lock()
	r.app = a
	r.parent = parent
	switch {
	case r.input == nil && parent != nil:
		r.input = parent.Input()
	case r.input == nil:
		r.input = a.Environment().Input()
	case parent != nil && r.input.Parent() == nil:
		r.input = r.input.WithParent(parent.Input())
	}
	r.mu.Unlock()

	if parent != nil {
		parent.addDescendant(r)
	}
	a.Notify(notifier.RequestCreated, r, "SetApplication")
}

func (r *Request) addDescendant(child *Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descendants = append(r.descendants, child)
}

// ── Accessors ─────────────────────────────────────────────────────────────────

func (r *Request) ID() string          { return r.id }
func (r *Request) URI() string         { return r.uri }
func (r *Request) App() *Application   { return r.app }
func (r *Request) Parent() *Request    { return r.parent }
func (r *Request) Input() *fhttp.Input { return r.input }

// Context returns the context the request runs under.
func (r *Request) Context() context.Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctx
}

// SetContext replaces the request context, usually with the one of the
// HTTP request being served.
func (r *Request) SetContext(ctx context.Context) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
	return r
}

// Descendants returns the sub-requests created while this request was active.
func (r *Request) Descendants() []*Request {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Request(nil), r.descendants...)
}

// Response returns the response of the last Execute, or nil.
func (r *Request) Response() fhttp.Responsible {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.response
}

// ── Activation ────────────────────────────────────────────────────────────────

// Activate makes the request the active one in its application until the
// returned Release (or Deactivate) is called.
func (r *Request) Activate() Release {
	if r.app == nil {
		return func() {}
	}
	prev := r.app.ActiveRequest()
	r.mu.Lock()
	r.before = append(r.before, prev)
	r.mu.Unlock()
	r.app.setActiveRequest(r)

	var once sync.Once
	return func() { once.Do(func() { _ = r.Deactivate() }) }
}

// Deactivate restores the request that was active before the last Activate.
func (r *Request) Deactivate() error {
	r.mu.Lock()
	n := len(r.before)
	if n == 0 {
		r.mu.Unlock()
		return ErrContextUnderflow
	}
	prev := r.before[n-1]
	r.before = r.before[:n-1]
	r.mu.Unlock()

	r.app.setActiveRequest(prev)
	return nil
}

// Run calls fn with the request active and releases it on every exit path.
func (r *Request) Run(fn func() error) error {
	release := r.Activate()
	defer release()
	return fn()
}

// ── Execution ─────────────────────────────────────────────────────────────────

// Execute routes the request and calls the matched handler. Errors are
// returned as they are; turning them into a response is up to the caller.
func (r *Request) Execute() error {
	if r.app == nil {
		return ErrNotInitialized
	}
	return r.Run(r.execute)
}

func (r *Request) execute() error {
	a := r.app
	log := a.Logger().With(slog.String("request_id", r.id), slog.String("uri", r.uri))

	a.Notify(notifier.RequestStarted, r, "Execute")

	handler, segments, err := a.ProcessRoute(r.uri)
	if err != nil {
		log.Debug("route not resolved", slog.Any("error", err))
		return err
	}

	response, err := handler(segments)
	if err != nil {
		return err
	}
	if response == nil {
		return fhttp.ErrInternal("handler returned no response for: " + r.uri)
	}

	r.mu.Lock()
	r.response = response
	r.mu.Unlock()

	a.Notify(notifier.RequestFinished, r, "Execute")
	log.Debug("request executed", slog.Int("status", response.Status()))
	return nil
}

var _ ApplicationAware = (*Request)(nil)
