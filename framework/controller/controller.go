package controller

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/km-arc/go-fuel/framework/app"
	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/loader"
	"github.com/km-arc/go-fuel/framework/notifier"
)

const (
	// DefaultAction is dispatched when no action segment is given.
	DefaultAction = "index"

	// ActionPrefix marks the methods reachable as actions.
	ActionPrefix = "Action"
)

// Owner is what dispatch needs from the application.
type Owner interface {
	Forge(class string, args ...any) (any, error)
	Notify(event string, source any, method string)
}

// Beforer controllers run Before ahead of every action.
type Beforer interface {
	Before() error
}

// Afterer controllers get the action result back before it is turned into
// a response.
type Afterer interface {
	After(result any) (any, error)
}

// Base is embedded by controllers. It receives the application and the
// request active when the controller was forged.
//
//	type Welcome struct{ controller.Base }
//
//	func (c *Welcome) ActionHello(name string) (any, error) {
//	    return "Hello, " + name, nil
//	}
type Base struct {
	app     *app.Application
	request *app.Request
}

// SetApplication implements app.ApplicationAware.
func (c *Base) SetApplication(a *app.Application) {
	c.app = a
	c.request = a.ActiveRequest()
}

func (c *Base) App() *app.Application   { return c.app }
func (c *Base) Request() *app.Request   { return c.request }
func (c *Base) Loader() loader.Loadable { return c.app.Package() }

// Input returns the input of the controller's request, or the environment
// input outside of a request.
func (c *Base) Input() *fhttp.Input {
	if c.request != nil {
		return c.request.Input()
	}
	return c.app.Environment().Input()
}

// ── Dispatch ──────────────────────────────────────────────────────────────────

// Handler turns a forged controller into an app.Handler. Controllers that
// implement app.Routable route their own segments; the others are
// dispatched by Dispatch.
func Handler(owner Owner, instance any) app.Handler {
	if r, ok := instance.(app.Routable); ok {
		return func(segments []string) (fhttp.Responsible, error) {
			owner.Notify(notifier.ControllerStarted, instance, "Router")
			return r.Router(segments)
		}
	}
	return func(segments []string) (fhttp.Responsible, error) {
		return Dispatch(owner, instance, segments)
	}
}

// Dispatch calls the action named by the first segment (DefaultAction when
// there is none) with the remaining segments as arguments. The action
// "view_post" maps onto the method ActionViewPost.
//
// Actions take string parameters, fixed or variadic, and return any,
// (any, error) or error. Missing arguments are passed as empty strings;
// surplus segments are dropped. A missing action is a 404 HTTPError.
func Dispatch(owner Owner, instance any, segments []string) (fhttp.Responsible, error) {
	action := DefaultAction
	if len(segments) > 0 {
		if segments[0] != "" {
			action = segments[0]
		}
		segments = segments[1:]
	}

	method := reflect.ValueOf(instance).MethodByName(MethodName(action))
	if !method.IsValid() {
		return nil, fhttp.ErrNotFound(fmt.Sprintf("No such action %q in controller %T", action, instance))
	}
	args, err := bindArgs(method.Type(), segments)
	if err != nil {
		return nil, fhttp.ErrInternal(fmt.Sprintf("Unavailable action %q in controller %T", action, instance), fhttp.WithError(err))
	}

	owner.Notify(notifier.ControllerStarted, instance, action)

	if b, ok := instance.(Beforer); ok {
		if err := b.Before(); err != nil {
			return nil, err
		}
	}

	result, err := results(method.Call(args))
	if err != nil {
		return nil, err
	}

	if a, ok := instance.(Afterer); ok {
		if result, err = a.After(result); err != nil {
			return nil, err
		}
	}
	return Respond(owner, result)
}

// Respond wraps result in a forged Response unless it already is one.
func Respond(owner Owner, result any) (fhttp.Responsible, error) {
	var body string
	switch v := result.(type) {
	case fhttp.Responsible:
		return v, nil
	case nil:
	case string:
		body = v
	case fmt.Stringer:
		body = v.String()
	default:
		body = fmt.Sprint(v)
	}

	instance, err := owner.Forge("Response", body)
	if err != nil {
		return nil, err
	}
	res, ok := instance.(fhttp.Responsible)
	if !ok {
		return nil, fmt.Errorf("controller: Response forged %T, want http.Responsible", instance)
	}
	return res, nil
}

// MethodName converts an action segment into its method name.
func MethodName(action string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.WriteString(ActionPrefix)
	for _, part := range strings.FieldsFunc(action, func(r rune) bool { return r == '_' || r == '-' }) {
		b.WriteString(caser.String(part))
	}
	return b.String()
}

// ── Reflection helpers ────────────────────────────────────────────────────────

var (
	stringType = reflect.TypeFor[string]()
	errorType  = reflect.TypeFor[error]()
)

func bindArgs(t reflect.Type, segments []string) ([]reflect.Value, error) {
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if t.In(fixed).Elem() != stringType {
			return nil, fmt.Errorf("variadic parameter of %s is not string", t)
		}
	}

	args := make([]reflect.Value, 0, max(fixed, len(segments)))
	for i := range fixed {
		if t.In(i) != stringType {
			return nil, fmt.Errorf("parameter %d of %s is not string", i, t)
		}
		v := ""
		if i < len(segments) {
			v = segments[i]
		}
		args = append(args, reflect.ValueOf(v))
	}
	if t.IsVariadic() && len(segments) > fixed {
		for _, s := range segments[fixed:] {
			args = append(args, reflect.ValueOf(s))
		}
	}
	return args, nil
}

func results(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		err, _ := out[len(out)-1].Interface().(error)
		return out[0].Interface(), err
	}
}
