package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/signup/pkg/middleware"
	"github.com/vango-dev/signup/pkg/render"
)

// ErrNoSubmitter is returned by New when Config.Submitter is nil.
var ErrNoSubmitter = errors.New("server: no submitter configured")

// Server is the HTTP and WebSocket server of the signup service.
type Server struct {
	config   Config
	router   chi.Router
	renderer *render.Renderer
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *middleware.Metrics

	// live sessions are closed through liveCtx on shutdown.
	liveCtx    context.Context
	liveCancel context.CancelFunc
	liveMu     sync.Mutex
	liveWG     sync.WaitGroup
}

// New creates a Server and mounts its routes.
func New(config Config) (*Server, error) {
	config = config.withDefaults()
	if config.Submitter == nil {
		return nil, ErrNoSubmitter
	}

	liveCtx, liveCancel := context.WithCancel(context.Background())
	s := &Server{
		config:   config,
		renderer: render.NewRenderer(render.RendererConfig{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.Live.CheckOrigin,
		},
		logger:     config.Logger.With("component", "server"),
		metrics:    config.Metrics,
		liveCtx:    liveCtx,
		liveCancel: liveCancel,
	}
	s.router = s.routes()
	return s, nil
}

// routes builds the chi router.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.accessLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracing(
		middleware.WithTracerName(s.config.TracerName),
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	))
	if s.metrics != nil {
		r.Use(s.metrics.Handler)
		r.Method(http.MethodGet, "/metrics", s.metrics.Exposition())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
	})
	r.Get("/signup", s.handleSignupPage)
	r.Post("/signup", s.handleSignupPost)

	r.Post("/api/signup", s.handleAPISubmit)
	r.Post("/api/signup/validate", s.handleAPIValidate)
	r.Get("/api/signup/schema", s.handleAPISchema)

	r.Get("/live", s.handleLive)
	r.Get("/static/live.js", s.handleLiveScript)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// accessLog logs one line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on Config.Address until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.shutdown(shutdownCtx, httpServer)
	})
	return g.Wait()
}

// shutdown closes live sessions, then drains HTTP requests.
func (s *Server) shutdown(ctx context.Context, httpServer *http.Server) error {
	s.stopLive()

	done := make(chan struct{})
	go func() {
		s.liveWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("live sessions did not close in time")
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// beginLive registers a live session. It reports false once shutdown has
// started; the caller must call liveWG.Done after a true result.
func (s *Server) beginLive() bool {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	if s.liveCtx.Err() != nil {
		return false
	}
	s.liveWG.Add(1)
	return true
}

// stopLive cancels live sessions and refuses new ones.
func (s *Server) stopLive() {
	s.liveMu.Lock()
	s.liveCancel()
	s.liveMu.Unlock()
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
