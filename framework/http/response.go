package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// Responsible is what a controller hands back to the request: anything that
// can report its status, send its headers and render its body.
type Responsible interface {
	Status() int
	Body() string
	SendHeaders(w http.ResponseWriter)
	String() string
}

// ── Response ─────────────────────────────────────────────────────────────────

// Response is the default Responsible.
type Response struct {
	status  int
	headers http.Header
	body    string
}

// NewResponse creates a response. A zero status means 200.
//
//	res := http.NewResponse("Hello", http.StatusOK, map[string]string{"X-Powered-By": "fuel"})
func NewResponse(body string, status int, headers map[string]string) *Response {
	if status == 0 {
		status = http.StatusOK
	}
	res := &Response{status: status, headers: make(http.Header), body: body}
	for k, v := range headers {
		res.SetHeader(k, v, true)
	}
	return res
}

// NewJSONResponse encodes data as the body of a JSON response.
//
//	res, err := http.NewJSONResponse(http.StatusOK, map[string]any{"message": "ok"})
func NewJSONResponse(status int, data any) (*Response, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return NewResponse(string(b), status, map[string]string{"Content-Type": "application/json"}), nil
}

// NewRedirect creates a redirect to url. A zero status means 302.
func NewRedirect(url string, status int) *Response {
	if status == 0 {
		status = http.StatusFound
	}
	return NewResponse("", status, map[string]string{"Location": url})
}

// Status returns the HTTP status code.
func (res *Response) Status() int { return res.status }

// SetStatus sets the HTTP status code.
func (res *Response) SetStatus(status int) *Response {
	res.status = status
	return res
}

// StatusText returns the reason phrase of the status code.
func (res *Response) StatusText() string { return http.StatusText(res.status) }

// ── Headers ──────────────────────────────────────────────────────────────────

// SetHeader queues a header. Without replace the value is appended to those
// already queued.
func (res *Response) SetHeader(name, value string, replace bool) *Response {
	if replace {
		res.headers.Set(name, value)
	} else {
		res.headers.Add(name, value)
	}
	return res
}

// Header returns the last value queued for name.
func (res *Response) Header(name string) (string, bool) {
	vals := res.headers.Values(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

// HeaderValues returns every value queued for name.
func (res *Response) HeaderValues(name string) []string {
	return res.headers.Values(name)
}

// Headers returns all queued headers.
func (res *Response) Headers() http.Header { return res.headers }

// SendHeaders writes the queued headers and the status line.
func (res *Response) SendHeaders(w http.ResponseWriter) {
	h := w.Header()
	for name, vals := range res.headers {
		for _, v := range vals {
			h.Add(name, v)
		}
	}
	if h.Get("Content-Type") == "" && res.body != "" {
		h.Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(res.status)
}

// ── Body ─────────────────────────────────────────────────────────────────────

// Body returns the response body.
func (res *Response) Body() string { return res.body }

// SetBody replaces the response body.
func (res *Response) SetBody(body string) *Response {
	res.body = body
	return res
}

// String returns the body.
func (res *Response) String() string { return res.body }

// Send writes the headers and body of r to w.
func Send(w http.ResponseWriter, r Responsible) error {
	r.SendHeaders(w)
	_, err := io.WriteString(w, r.Body())
	return err
}

// Send writes the response to w.
func (res *Response) Send(w http.ResponseWriter) error {
	return Send(w, res)
}

// IsRedirect reports whether the status is a 3xx with a Location header.
func (res *Response) IsRedirect() bool {
	_, ok := res.Header("Location")
	return ok && res.status >= 300 && res.status < 400
}

// ContentType returns the media type of the response without parameters.
func (res *Response) ContentType() string {
	ct, _ := res.Header("Content-Type")
	mt, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(mt)
}

var _ Responsible = (*Response)(nil)
