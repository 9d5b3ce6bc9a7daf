package view

import (
	"log/slog"
	"reflect"
	"strings"
)

// presenterDir marks where the view path of a presenter type starts.
const presenterDir = "presenter/"

// Presentable holds the view logic of a presenter.
type Presentable interface {
	Present() error
}

type beforer interface{ Before() error }

type afterer interface{ After() error }

// Presenter is a View whose data is prepared by view logic: Before, Present
// and After run once, on the first Render.
//
//	type Post struct{ *view.Presenter }
//
//	func NewPost() *Post {
//		p := &Post{}
//		p.Presenter = view.NewPresenter(p, "")
//		return p
//	}
//
//	func (p *Post) Present() error { return p.Set("Title", "Hello") }
type Presenter struct {
	*View
	logic     Presentable
	presented bool
}

// NewPresenter creates a presenter for logic. An empty file defaults to
// DefaultPath(logic).
func NewPresenter(logic Presentable, file string) *Presenter {
	if file == "" {
		file = DefaultPath(logic)
	}
	return &Presenter{View: New(file, nil), logic: logic}
}

// DefaultPath derives a view path from the type of v: the package path below
// a "presenter" directory plus the lowercased type name.
//
//	example.com/blog/presenter/admin.Post → "admin/post"
func DefaultPath(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	full := t.PkgPath() + "/" + t.Name()
	if i := strings.LastIndex(full, presenterDir); i >= 0 {
		return strings.ToLower(full[i+len(presenterDir):])
	}
	return strings.ToLower(t.Name())
}

// Render runs the view logic once, then renders the view.
func (p *Presenter) Render() (string, error) {
	if !p.presented {
		p.presented = true
		if err := p.present(); err != nil {
			return "", err
		}
	}
	return p.View.Render()
}

func (p *Presenter) present() error {
	if b, ok := p.logic.(beforer); ok {
		if err := b.Before(); err != nil {
			return err
		}
	}
	if err := p.logic.Present(); err != nil {
		return err
	}
	if a, ok := p.logic.(afterer); ok {
		return a.After()
	}
	return nil
}

// String renders the presenter; errors are logged and give an empty string.
func (p *Presenter) String() string {
	out, err := p.Render()
	if err != nil {
		p.log.Error("presenter render failed", slog.String("file", p.file), slog.Any("error", err))
		return ""
	}
	return out
}
