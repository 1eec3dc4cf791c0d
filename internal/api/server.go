// Package api implements the HTTP front end for the dispatch service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/localdev/devassist/internal/buildinfo"
	"github.com/localdev/devassist/internal/mcp"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response,
// which is not actionable but worth tracking for debugging.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server serves the request/response envelope over HTTP.
type Server struct {
	address string
	port    int
	mcp     *mcp.Server
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates the HTTP front end around a dispatch server.
func NewServer(address string, port int, dispatch *mcp.Server, logger *slog.Logger) *Server {
	return &Server{
		address: address,
		port:    port,
		mcp:     dispatch,
		logger:  logger,
	}
}

// Handler returns the route table wrapped in the logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /mcp", s.handleDispatch)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests and blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // completion calls can be slow
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// withLogging logs every request with a generated request ID and its
// duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// handleDispatch is the envelope endpoint. Failures are expressed in
// the envelope, not as HTTP status codes; the one exception is a body
// that is not valid JSON.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req mcp.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, &mcp.Response{
			Success: false,
			Error:   fmt.Sprintf("invalid request body: %v", err),
		}, s.logger)
		return
	}

	writeJSON(w, s.mcp.Dispatch(r.Context(), &req), s.logger)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"name":              "DevAssist",
		"version":           buildinfo.Version,
		"build":             buildinfo.Info(),
		"available_actions": s.mcp.ActionNames(),
		"ollama_available":  s.mcp.BackendAvailable(r.Context()),
	}, s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":           "healthy",
		"uptime":           buildinfo.Uptime().String(),
		"ollama_available": s.mcp.BackendAvailable(r.Context()),
		"workspace":        s.mcp.Workspace().Root(),
	}, s.logger)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"tools":        s.mcp.ActionNames(),
		"descriptions": s.mcp.Describe(),
	}, s.logger)
}
