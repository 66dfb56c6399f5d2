// Package httpapi serves the analyzer tools over HTTP
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/skill"
	"github.com/sipsyai/video-automation-analyzer/pkg/version"
)

// Service is the work behind the endpoints
type Service interface {
	AnalyzeVideo(ctx context.Context, args skill.VideoArgs) skill.Result
	AnalyzeImage(ctx context.Context, args skill.ImageArgs) skill.Result
}

// Server is the HTTP front end
type Server struct {
	svc    Service
	server *http.Server
}

// NewServer returns a server that will listen on addr. The write timeout
// covers a full video analysis.
func NewServer(svc Service, addr string) *Server {
	s := &Server{svc: svc}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Minute,
	}
	return s
}

// Router returns the route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/analyze/video", s.handleVideo).Methods(http.MethodPost)
	v1.HandleFunc("/analyze/image", s.handleImage).Methods(http.MethodPost)
	r.Use(logRequests)
	return r
}

// ListenAndServe blocks until the server stops. It shuts down gracefully
// when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logger.G(ctx).WithError(err).Warn("http server shutdown failed")
		}
	}()

	logger.G(ctx).WithField("addr", ln.Addr().String()).Info("starting HTTP API")
	err := s.server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}
	<-done
	return nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok", Version: version.Version})
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	var args skill.VideoArgs
	if !decode(w, r, &args) {
		return
	}
	writeResult(r.Context(), w, s.svc.AnalyzeVideo(r.Context(), args))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var args skill.ImageArgs
	if !decode(w, r, &args) {
		return
	}
	writeResult(r.Context(), w, s.svc.AnalyzeImage(r.Context(), args))
}

type errorResponse struct {
	Error string `json:"error"`
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		logger.G(r.Context()).WithError(err).Debug("rejecting request body")
		writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeResult(ctx context.Context, w http.ResponseWriter, res skill.Result) {
	status := http.StatusOK
	if res.IsError {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(ctx, w, status, res)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode response")
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.G(r.Context()).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("duration", time.Since(start)).
			Debug("handled request")
	})
}
