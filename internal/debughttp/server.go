package debughttp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/cellclient/internal/errors"
	"github.com/vango-dev/cellclient/pkg/client"
	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/session"
	"github.com/vango-dev/cellclient/pkg/world"
)

// Controller is the part of *client.Client the listener drives.
type Controller interface {
	Snapshot(ctx context.Context) ([]session.Snapshot, error)
	ToggleActive() error
	SelectServer(url string) error
	Play(role world.Role) error
	Action(a protocol.Action) error
}

// Options configures the router.
type Options struct {
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer

	// Logger receives one line per request.
	Logger *slog.Logger

	// ValidateURL checks POST /server bodies before they reach the client.
	ValidateURL func(string) error

	// Timeout bounds every request. Zero means 5s.
	Timeout time.Duration
}

type handler struct {
	ctl      Controller
	logger   *slog.Logger
	validate func(string) error
}

// NewRouter returns the inspection routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /sessions
//	GET  /sessions/{role}
//	POST /sessions/{role}/play
//	POST /toggle
//	POST /server         {"url": "ws://..."}
//	POST /actions/{name}
func NewRouter(ctl Controller, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := &handler{ctl: ctl, logger: opts.Logger, validate: opts.ValidateURL}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.listSessions)
		r.Get("/{role}", h.getSession)
		r.Post("/{role}/play", h.play)
	})
	r.Post("/toggle", h.toggle)
	r.Post("/server", h.selectServer)
	r.Post("/actions/{name}", h.action)
	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("debug request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.ctl.Snapshot(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	role, ok := world.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("E181"))
		return
	}
	snaps, err := h.ctl.Snapshot(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	for _, s := range snaps {
		if s.Role == role.String() {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeError(w, http.StatusNotFound, client.ErrNoSession)
}

func (h *handler) play(w http.ResponseWriter, r *http.Request) {
	role, ok := world.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("E181"))
		return
	}
	h.done(w, h.ctl.Play(role))
}

func (h *handler) toggle(w http.ResponseWriter, r *http.Request) {
	h.done(w, h.ctl.ToggleActive())
}

type serverRequest struct {
	URL string `json:"url"`
}

func (h *handler) selectServer(w http.ResponseWriter, r *http.Request) {
	var req serverRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if h.validate != nil {
		if err := h.validate(req.URL); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	h.done(w, h.ctl.SelectServer(req.URL))
}

func (h *handler) action(w http.ResponseWriter, r *http.Request) {
	a, ok := protocol.ParseAction(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("E141").WithDetail(chi.URLParam(r, "name")))
		return
	}
	h.done(w, h.ctl.Action(a))
}

func (h *handler) done(w http.ResponseWriter, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, client.ErrClientClosed):
		status = http.StatusServiceUnavailable
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	h.logger.Warn("debug request failed", "error", err, "status", status)
	writeError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	if code := errors.CodeOf(err); code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}

// Server is a running debug listener.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
	errCh  chan error
}

// Start binds addr and serves h in the background.
func Start(addr string, h http.Handler, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.New("E122").WithDetail(addr).Wrap(err)
	}
	s := &Server{
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger,
		errCh:  make(chan error, 1),
	}
	go func() {
		err := s.srv.Serve(ln)
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("debug listener stopped", "error", err)
			s.errCh <- err
		}
		close(s.errCh)
	}()
	logger.Info("debug listener started", "addr", ln.Addr().String())
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.errCh
}
