// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport serves A2A agents over HTTP. JSON-RPC requests are
// answered with a JSON body, or with a server-sent event stream for
// message/stream.
package transport

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/internal/pool"
	"github.com/go-a2a/a2a-taskserver/internal/telemetry"
	"github.com/go-a2a/a2a-taskserver/server"
	"github.com/go-a2a/a2a-taskserver/server/handler"
)

// DefaultMaxBodyBytes is the default limit on JSON-RPC request bodies.
const DefaultMaxBodyBytes = 4 << 20

// Server is an [http.Handler] exposing the agents of a [server.TaskManager].
type Server struct {
	tm           *server.TaskManager
	handler      *handler.Handler
	router       chi.Router
	card         server.CardOptions
	maxBodyBytes int64
	logger       *slog.Logger
	metrics      *telemetry.Metrics
}

var _ http.Handler = (*Server)(nil)

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the [*slog.Logger] for the [Server].
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the [*telemetry.Metrics] requests are recorded to.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithCardOptions sets the deployment details published on agent cards.
// Without a BaseURL the card URL is derived from the request.
func WithCardOptions(opts server.CardOptions) Option {
	return func(s *Server) {
		s.card = opts
	}
}

// WithMaxBodyBytes sets the limit on request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer returns a Server routing requests to tm.
func NewServer(tm *server.TaskManager, opts ...Option) *Server {
	s := &Server{
		tm:           tm,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = telemetry.Default()
	}
	s.handler = handler.New(tm, handler.WithLogger(s.logger), handler.WithMetrics(s.metrics))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Get(a2a.HealthPath, s.handleHealth)
	r.Get(a2a.AgentCardPath, s.handleAgentCard)
	r.Get(a2a.LegacyAgentCardPath, s.handleAgentCard)
	r.Post(a2a.RPCPath, s.handleRPC)
	s.router = r

	return s
}

// Handle registers an additional handler, such as a metrics endpoint.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	a, err := s.tm.ResolveAgent(r.Context(), agentID, CallContextFromRequest(r))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	opts := s.card
	if opts.BaseURL == "" {
		opts.BaseURL = requestBaseURL(r)
	}
	s.writeJSON(w, server.BuildAgentCard(a, opts))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	body := pool.Bytes.Get()
	defer pool.Bytes.Put(body)
	if _, err := body.ReadFrom(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}

	res := s.handler.Handle(r.Context(), agentID, body.Bytes(), CallContextFromRequest(r))
	if res.IsStream() {
		s.writeStream(w, r, res)
		return
	}
	s.writeJSON(w, res.Response)
}

// writeStream sends every envelope as one flushed event. A write failure
// stops the stream, which releases the underlying task operation.
func (s *Server) writeStream(w http.ResponseWriter, r *http.Request, res *handler.Result) {
	setEventStreamHeaders(w)
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		s.logger.WarnContext(r.Context(), "response does not support flushing", slog.Any("error", err))
	}

	events := 0
	for env := range res.Stream {
		if err := writeEvent(w, env); err != nil {
			s.logger.InfoContext(r.Context(), "stream write failed", slog.Int("events", events), slog.Any("error", err))
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			s.logger.InfoContext(r.Context(), "stream flush failed", slog.Int("events", events), slog.Any("error", err))
			return
		}
		events++
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	if err := json.MarshalWrite(buf, v); err != nil {
		s.logger.Error("marshal response", slog.Any("error", err))
		http.Error(w, "marshal response failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", chimw.GetReqID(r.Context())))
	})
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
