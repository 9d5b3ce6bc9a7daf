package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
)

const maxMemory = 32 << 20 // 32 MB

// Input is the request input a kernel request works on: the HTTP method, URI,
// query string, body params, cookies and server headers. Lookups that miss
// fall back on the parent input when there is one.
type Input struct {
	raw    *http.Request
	parent *Input
	method string

	// explicit params override the parsed body
	params map[string]string

	uri string
	ext string
}

// NewInput wraps a standard *http.Request. The method honours the
// X-HTTP-Method-Override header.
func NewInput(r *http.Request) *Input {
	method := r.Method
	if override := r.Header.Get("X-HTTP-Method-Override"); override != "" {
		method = strings.ToUpper(override)
	}
	in := &Input{raw: r, method: method}
	in.detectURI(r.URL.Path)
	return in
}

// NewCLIInput builds input without a client connection, for sub-requests and
// command line dispatch.
//
//	in := http.NewCLIInput(http.MethodPost, "/blog/new", map[string]string{"title": "Hi"})
func NewCLIInput(method, uri string, params map[string]string) *Input {
	u, err := url.Parse(uri)
	if err != nil {
		u = &url.URL{Path: uri}
	}
	raw := &http.Request{
		Method:     strings.ToUpper(method),
		URL:        u,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
		RemoteAddr: "127.0.0.1",
	}
	in := &Input{raw: raw, method: raw.Method, params: params}
	in.detectURI(u.Path)
	return in
}

// WithParent returns a copy of the input that falls back on parent.
func (in *Input) WithParent(parent *Input) *Input {
	cp := *in
	cp.parent = parent
	return &cp
}

// Parent returns the input this one falls back on, or nil.
func (in *Input) Parent() *Input { return in.parent }

// Raw returns the underlying *http.Request.
func (in *Input) Raw() *http.Request { return in.raw }

// detectURI splits a trailing file extension off the path.
func (in *Input) detectURI(p string) {
	if p == "" {
		p = "/"
	}
	if ext := path.Ext(p); ext != "" && !strings.Contains(ext, "/") {
		in.ext = ext[1:]
		p = strings.TrimSuffix(p, ext)
	}
	in.uri = p
}

// ── Request line ─────────────────────────────────────────────────────────────

// Method returns the HTTP method.
func (in *Input) Method() string { return in.method }

// URI returns the request path without its extension.
func (in *Input) URI() string { return in.uri }

// Extension returns the extension stripped from the URI ("json" for
// /users.json), or "".
func (in *Input) Extension() string { return in.ext }

// Protocol returns "https" or "http".
func (in *Input) Protocol() string {
	if in.raw.TLS != nil || strings.EqualFold(in.raw.Header.Get("X-Forwarded-Proto"), "https") {
		return "https"
	}
	return "http"
}

// ── Client ───────────────────────────────────────────────────────────────────

// IP returns the client IP (respects the RealIP middleware).
func (in *Input) IP(fallback ...string) string {
	if in.raw.RemoteAddr == "" {
		return first(fallback, "0.0.0.0")
	}
	return in.raw.RemoteAddr
}

// RealIP returns the client IP as reported by proxy headers.
func (in *Input) RealIP(fallback ...string) string {
	for _, h := range []string{"X-Cluster-Client-Ip", "X-Forwarded-For", "Client-Ip"} {
		if v := in.raw.Header.Get(h); v != "" {
			return strings.TrimSpace(strings.Split(v, ",")[0])
		}
	}
	return in.IP(fallback...)
}

// IsAjax returns true for XMLHttpRequest requests.
func (in *Input) IsAjax() bool {
	return strings.EqualFold(in.raw.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// Referrer returns the Referer header.
func (in *Input) Referrer(fallback ...string) string {
	if ref := in.raw.Referer(); ref != "" {
		return ref
	}
	return first(fallback, "")
}

// UserAgent returns the User-Agent header.
func (in *Input) UserAgent(fallback ...string) string {
	if ua := in.raw.UserAgent(); ua != "" {
		return ua
	}
	return first(fallback, "")
}

// Header returns a request header value.
func (in *Input) Header(key string) string {
	return in.raw.Header.Get(key)
}

// Language picks the best match of supported for the Accept-Language header.
// The first supported tag is the default.
func (in *Input) Language(supported ...language.Tag) language.Tag {
	if len(supported) == 0 {
		return language.Und
	}
	accept, _, _ := language.ParseAcceptLanguage(in.raw.Header.Get("Accept-Language"))
	_, i, _ := language.NewMatcher(supported).Match(accept...)
	return supported[i]
}

// ── Params ───────────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (in *Input) Query(key string, fallback ...string) string {
	if vals, ok := in.raw.URL.Query()[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	if in.parent != nil {
		return in.parent.Query(key, fallback...)
	}
	return first(fallback, "")
}

// Param returns an input value (explicit params, then body, then query).
func (in *Input) Param(key string, fallback ...string) string {
	if v, ok := in.params[key]; ok {
		return v
	}
	if in.parseForm() {
		if vals, ok := in.raw.Form[key]; ok && len(vals) > 0 {
			return vals[0]
		}
	}
	if in.parent != nil {
		return in.parent.Param(key, fallback...)
	}
	return first(fallback, "")
}

// Has returns true if the param is present and non-empty.
func (in *Input) Has(key string) bool {
	return in.Param(key) != ""
}

// All returns all params as a flat map.
func (in *Input) All() map[string]string {
	out := make(map[string]string)
	if in.parseForm() {
		for k, v := range in.raw.Form {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
	}
	for k, v := range in.params {
		out[k] = v
	}
	return out
}

// Cookie returns a cookie value.
func (in *Input) Cookie(name string, fallback ...string) string {
	if c, err := in.raw.Cookie(name); err == nil {
		return c.Value
	}
	if in.parent != nil {
		return in.parent.Cookie(name, fallback...)
	}
	return first(fallback, "")
}

// RouteParam returns a URL parameter of the front router (chi).
func (in *Input) RouteParam(key string) string {
	return chi.URLParam(in.raw, key)
}

func (in *Input) parseForm() bool {
	if in.raw.Form != nil {
		return true
	}
	if in.raw.Body == nil {
		in.raw.Form = in.raw.URL.Query()
		return true
	}
	return in.raw.ParseForm() == nil
}

// ── Binding ──────────────────────────────────────────────────────────────────

// ContentType returns the Content-Type header value.
func (in *Input) ContentType() string {
	return in.raw.Header.Get("Content-Type")
}

// Bind decodes the request body into v. JSON bodies decode through their
// `json` tags; form bodies are mapped onto the same tags.
func (in *Input) Bind(v any) error {
	ct := in.ContentType()

	switch {
	case strings.Contains(ct, "application/json"):
		return in.bindJSON(v)
	case strings.Contains(ct, "multipart/form-data"):
		if err := in.raw.ParseMultipartForm(maxMemory); err != nil {
			return err
		}
		return bindForm(in.raw.MultipartForm.Value, v)
	default:
		if err := in.raw.ParseForm(); err != nil {
			return err
		}
		return bindForm(in.raw.PostForm, v)
	}
}

func (in *Input) bindJSON(v any) error {
	if in.raw.Body == nil {
		return errors.New("empty request body")
	}
	defer in.raw.Body.Close()
	body, err := io.ReadAll(in.raw.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, v)
}

func bindForm(values map[string][]string, v any) error {
	m := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			m[k] = vals[0]
		} else {
			m[k] = vals
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
