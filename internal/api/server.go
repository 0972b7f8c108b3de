// Package api serves the local control surface: player status, user
// intents, session bootstrap and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"player-control/internal/log"
	"player-control/internal/player"
	"player-control/internal/playlist"
)

// Controller is the part of the player the API drives. Dispatch and
// Open run on the control goroutine through Do.
type Controller interface {
	Status() player.Status
	Do(ctx context.Context, fn func() error) error
	Dispatch(name string, args ...string) error
	Open(entry playlist.Entry) error
}

// Info is reported by /healthz.
type Info struct {
	Version   string  `json:"version"`
	Uptime    float64 `json:"uptime_sec"`
	Arch      string  `json:"arch"`
	OS        string  `json:"os"`
	Timestamp string  `json:"timestamp"`
}

// OpenRequest is the body of POST /open.
type OpenRequest struct {
	URIs  []string `json:"uris"`
	Index int      `json:"index"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Server is the HTTP control API.
type Server struct {
	ctrl    Controller
	version string
	startAt time.Time
	log     *logrus.Entry
	router  chi.Router
}

// New builds the server and its routes.
func New(ctrl Controller, version string) *Server {
	s := &Server{
		ctrl:    ctrl,
		version: version,
		startAt: time.Now(),
		log:     log.For("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/open", s.handleOpen)
	r.Post("/intents/{name}", s.handleIntent)
	r.Get("/intents", s.handleIntentList)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("control api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).Round(time.Microsecond),
			"req_id":   middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Info{
		Version:   s.version,
		Uptime:    time.Since(s.startAt).Seconds(),
		Arch:      runtime.GOARCH,
		OS:        runtime.GOOS,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleIntentList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, player.Intents())
}

// handleIntent runs /intents/{name}; arguments come from repeated "arg"
// query parameters, e.g. /intents/seek?arg=1:30.
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	args := r.URL.Query()["arg"]

	err := s.ctrl.Do(r.Context(), func() error {
		return s.ctrl.Dispatch(name, args...)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}

	err := s.ctrl.Do(r.Context(), func() error {
		// An empty list still goes to Open, as the zero Entry, so the
		// session fails and reports it like any other bad input.
		entry, err := playlist.New(req.URIs, req.Index)
		if err != nil && !errors.Is(err, playlist.ErrEmpty) {
			return err
		}
		return s.ctrl.Open(entry)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.ctrl.Status())
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).Warn("request failed")
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, player.ErrUnknownIntent):
		return http.StatusNotFound
	case errors.Is(err, player.ErrBadArgument),
		errors.Is(err, playlist.ErrEmpty),
		errors.Is(err, playlist.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, player.ErrNotLoaded),
		errors.Is(err, player.ErrNoSession),
		errors.Is(err, player.ErrEndOfPlaylist):
		return http.StatusConflict
	case errors.Is(err, player.ErrSessionClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
