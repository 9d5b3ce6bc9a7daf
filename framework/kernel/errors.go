package kernel

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/km-arc/go-fuel/framework/app"
	fhttp "github.com/km-arc/go-fuel/framework/http"
)

// ErrorHandler renders errors escaping a request as plain text responses.
// An *fhttp.HTTPError keeps its status and message; anything else is a 500
// whose cause is only shown in debug mode.
type ErrorHandler struct {
	log   *slog.Logger
	debug bool
}

// NewErrorHandler creates an error handler logging to slog.Default.
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{log: slog.Default()}
}

// SetApplication implements app.ApplicationAware.
func (h *ErrorHandler) SetApplication(a *app.Application) {
	h.log = a.Logger()
	h.debug = a.Environment().Debug()
}

// SetDebug toggles error details in responses.
func (h *ErrorHandler) SetDebug(debug bool) *ErrorHandler {
	h.debug = debug
	return h
}

// Handle implements app.ErrorHandler.
func (h *ErrorHandler) Handle(err error) fhttp.Responsible {
	status := fhttp.StatusOf(err)
	attrs := []any{slog.Int("status", status), slog.Any("error", err)}

	var he *fhttp.HTTPError
	isHTTP := errors.As(err, &he)
	if isHTTP && he.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", he.RequestID))
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", attrs...)
	} else {
		h.log.Debug("request ended with error status", attrs...)
	}

	body := http.StatusText(status)
	switch {
	case isHTTP && he.Message != "":
		body = he.Message
		if h.debug && he.Detail != "" {
			body += "\n" + he.Detail
		}
	case h.debug:
		body = fmt.Sprintf("%s\n%v", body, err)
	}

	return fhttp.NewResponse(body, status, map[string]string{
		"Content-Type": "text/plain; charset=utf-8",
	})
}

var _ app.ErrorHandler = (*ErrorHandler)(nil)
