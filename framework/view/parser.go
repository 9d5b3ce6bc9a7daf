package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrTemplateNotFound is returned when a view file cannot be found.
	ErrTemplateNotFound = errors.New("view: template not found")

	// ErrRenderFailed wraps template parse and execution errors.
	ErrRenderFailed = errors.New("view: render failed")
)

// Parsable renders templates of one kind, recognised by file extension.
type Parsable interface {
	Extension() string
	ParseFile(path string, data map[string]any) (string, error)
	ParseString(template string, data map[string]any) (string, error)
}

// executor is implemented by both html/template and text/template.
type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(tmpl executor, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.String(), nil
}

// fileCache holds parsed templates by path. Concurrent misses on one path
// read and parse the file once.
type fileCache[T any] struct {
	items map[string]T
	mu    sync.RWMutex
	group singleflight.Group
}

func (c *fileCache[T]) get(path string, parse func(content string) (T, error)) (T, error) {
	c.mu.RLock()
	cached, ok := c.items[path]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, path, err)
		}
		parsed, err := parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, path, err)
		}

		c.mu.Lock()
		if c.items == nil {
			c.items = make(map[string]T)
		}
		c.items[path] = parsed
		c.mu.Unlock()
		return parsed, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// ── Template ──────────────────────────────────────────────────────────────────

// Template parses html/template views, extension "html".
type Template struct {
	funcs template.FuncMap
	cache fileCache[*template.Template]
}

// NewTemplate creates an html/template parser with the given functions.
func NewTemplate(funcs template.FuncMap) *Template {
	return &Template{funcs: funcs}
}

// Extension implements Parsable.
func (t *Template) Extension() string { return "html" }

// ParseFile implements Parsable.
func (t *Template) ParseFile(path string, data map[string]any) (string, error) {
	tmpl, err := t.cache.get(path, func(content string) (*template.Template, error) {
		return template.New(path).Funcs(t.funcs).Parse(content)
	})
	if err != nil {
		return "", err
	}
	return execute(tmpl, data)
}

// ParseString implements Parsable.
func (t *Template) ParseString(tpl string, data map[string]any) (string, error) {
	tmpl, err := template.New("string").Funcs(t.funcs).Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return execute(tmpl, data)
}

// ── Markdown ──────────────────────────────────────────────────────────────────

// Markdown expands text/template actions in a markdown view, extension "md",
// then converts the result to HTML.
type Markdown struct {
	md    goldmark.Markdown
	funcs texttemplate.FuncMap
	cache fileCache[*texttemplate.Template]
}

// NewMarkdown creates a markdown parser. Without options goldmark's
// CommonMark defaults apply.
func NewMarkdown(funcs texttemplate.FuncMap, opts ...goldmark.Option) *Markdown {
	return &Markdown{md: goldmark.New(opts...), funcs: funcs}
}

// Extension implements Parsable.
func (m *Markdown) Extension() string { return "md" }

// ParseFile implements Parsable.
func (m *Markdown) ParseFile(path string, data map[string]any) (string, error) {
	tmpl, err := m.cache.get(path, func(content string) (*texttemplate.Template, error) {
		return texttemplate.New(path).Funcs(m.funcs).Parse(content)
	})
	if err != nil {
		return "", err
	}
	return m.convert(tmpl, data)
}

// ParseString implements Parsable.
func (m *Markdown) ParseString(tpl string, data map[string]any) (string, error) {
	tmpl, err := texttemplate.New("string").Funcs(m.funcs).Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return m.convert(tmpl, data)
}

func (m *Markdown) convert(tmpl *texttemplate.Template, data map[string]any) (string, error) {
	source, err := execute(tmpl, data)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := m.md.Convert([]byte(source), &out); err != nil {
		return "", fmt.Errorf("%w: failed to convert markdown: %v", ErrRenderFailed, err)
	}
	return out.String(), nil
}

var (
	_ Parsable = (*Template)(nil)
	_ Parsable = (*Markdown)(nil)
)
