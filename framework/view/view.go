package view

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/km-arc/go-fuel/framework/app"
)

// ViewsLocation is the package directory views are searched in.
const ViewsLocation = "views"

var (
	// ErrReservedName is returned by Set for names with a single underscore
	// prefix.
	ErrReservedName = errors.New("view: names with a single underscore prefix are reserved")

	// ErrUnknownVariable is returned by Get for a name that was never set.
	ErrUnknownVariable = errors.New("view: variable not set")

	// ErrNoParser is returned when rendering without a parser.
	ErrNoParser = errors.New("view: no parser")
)

// View is a template plus its data, bound to the application and request it
// was created in.
//
//	v := view.New("blog/post", map[string]any{"Title": "Hello"})
//	a.Inject(v)
//	html, err := v.Render()
type View struct {
	app     *app.Application
	request *app.Request
	parser  Parsable
	log     *slog.Logger

	file     string
	path     string
	template string
	data     map[string]any

	// first error met while binding, returned by Render
	err error
}

// New creates a view of file (without extension), resolved once the view is
// bound to an application.
func New(file string, data map[string]any) *View {
	if data == nil {
		data = make(map[string]any)
	}
	return &View{file: file, data: data, log: slog.Default()}
}

// SetApplication implements app.ApplicationAware. The request active at this
// moment is the one the view renders in.
func (v *View) SetApplication(a *app.Application) {
	v.app = a
	v.request = a.ActiveRequest()
	v.log = a.Logger()

	if v.parser == nil {
		obj, err := a.Object("Parser")
		if err != nil {
			v.err = err
			return
		}
		p, ok := obj.(Parsable)
		if !ok {
			v.err = fmt.Errorf("%w: Parser is %T", app.ErrUnexpectedType, obj)
			return
		}
		v.parser = p
	}
	if v.file != "" {
		v.err = v.SetFilename(v.file)
	}
}

// SetParser replaces the parser.
func (v *View) SetParser(p Parsable) *View {
	v.parser = p
	return v
}

// SetFilename resolves views/<file>.<ext> through the application.
func (v *View) SetFilename(file string) error {
	if v.app == nil {
		return app.ErrNotInitialized
	}
	if v.parser == nil {
		return ErrNoParser
	}
	name := file + "." + v.parser.Extension()
	path, ok := v.app.FindFile(ViewsLocation, name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, ViewsLocation, name)
	}
	v.file, v.path, v.template = file, path, ""
	return nil
}

// SetTemplate renders tpl instead of a file.
func (v *View) SetTemplate(tpl string) *View {
	v.file, v.path, v.template = "", "", tpl
	return v
}

// Path returns the resolved file path, empty for string templates.
func (v *View) Path() string { return v.path }

// Set stores a variable.
func (v *View) Set(name string, value any) error {
	if reserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	v.data[name] = value
	return nil
}

// Get returns a variable.
func (v *View) Get(name string) (any, error) {
	value, ok := v.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return value, nil
}

// Data returns a copy of the variables.
func (v *View) Data() map[string]any { return maps.Clone(v.data) }

func reserved(name string) bool {
	return len(name) > 2 && name[0] == '_' && name[1] != '_'
}

// Render parses the view. The application and request the view was created
// in are activated for the duration when they are not the active ones.
func (v *View) Render() (string, error) {
	if v.err != nil {
		return "", v.err
	}
	if v.app != nil && v.app.Environment().ActiveApplication() != v.app {
		release := v.app.Activate()
		defer release()
	}
	if v.request != nil && v.app.ActiveRequest() != v.request {
		release := v.request.Activate()
		defer release()
	}
	return v.parse()
}

func (v *View) parse() (string, error) {
	if v.parser == nil {
		return "", ErrNoParser
	}
	if v.path != "" {
		return v.parser.ParseFile(v.path, v.data)
	}
	return v.parser.ParseString(v.template, v.data)
}

// String renders the view; errors are logged and give an empty string.
func (v *View) String() string {
	out, err := v.Render()
	if err != nil {
		v.log.Error("view render failed", slog.String("file", v.file), slog.Any("error", err))
		return ""
	}
	return out
}
