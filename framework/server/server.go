package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/go-fuel/framework/app"
	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/kernel"
)

const (
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// Server is the HTTP front of one environment: it maps URL prefixes onto
// applications and feeds each request through the kernel.
type Server struct {
	mux chi.Router
	log *slog.Logger

	// the kernel runs one request at a time
	dispatch sync.Mutex

	mwMu sync.RWMutex
	mw   []func(http.Handler) http.Handler

	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and lifecycle logs.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithShutdownTimeout bounds the graceful shutdown in Run.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New creates a Server with request IDs, real IP detection, request logging
// and panic recovery.
func New(opts ...Option) *Server {
	s := &Server{
		mux:             chi.NewRouter(),
		log:             slog.Default(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.RealIP)
	s.mux.Use(requestLogger(s.log))
	s.mux.Use(middleware.Recoverer)
	return s
}

// Middleware adds middleware in front of every mounted application, including
// those mounted earlier. Static files are not wrapped.
func (s *Server) Middleware(mw ...func(http.Handler) http.Handler) {
	s.mwMu.Lock()
	defer s.mwMu.Unlock()
	s.mw = append(s.mw, mw...)
}

func (s *Server) middlewares() chi.Middlewares {
	s.mwMu.RLock()
	defer s.mwMu.RUnlock()
	return slices.Clone(s.mw)
}

// Mount routes every path under prefix to a. The prefix is stripped from the
// URI the application sees.
//
//	srv.Mount("/", site)
//	srv.Mount("/admin", admin)
func (s *Server) Mount(prefix string, a *app.Application) {
	prefix = "/" + strings.Trim(prefix, "/")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.serve(w, r, a, prefix)
	})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.middlewares().Handler(next).ServeHTTP(w, r)
	})

	if prefix == "/" {
		s.mux.Handle("/*", h)
		return
	}
	s.mux.Handle(prefix, h)
	s.mux.Handle(prefix+"/*", h)
}

// Static serves dir under prefix, outside the kernel.
//
//	srv.Static("/assets", "./public/assets")
func (s *Server) Static(prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/")
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	s.mux.Get(prefix+"/*", fs.ServeHTTP)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, a *app.Application, prefix string) {
	uri := r.URL.Path
	if prefix != "/" {
		uri = strings.TrimPrefix(uri, prefix)
	}

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	res := kernel.Dispatch(r.Context(), a, uri, fhttp.NewInput(r))
	if err := fhttp.Send(w, res); err != nil {
		s.log.WarnContext(r.Context(), "response not sent", slog.String("app", a.Name()), slog.Any("error", err))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("shutdown completed")
	return nil
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.InfoContext(r.Context(), "request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
