// Package server exposes the shared conversation over HTTP: a landing page, static files
// and a single POST /chat route.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/m2tx/toolchat/internal/agent"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
	indexFile       = "index.html"
)

// Sender runs one conversation turn.
type Sender interface {
	Send(ctx context.Context, prompt string) (*agent.TurnResult, error)
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type Server struct {
	sender    Sender
	addr      string
	staticDir string
	index     []byte
	logger    *slog.Logger
	onReady   func(addr string)
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithFallbackIndex sets the landing page served when staticDir has no index.html.
func WithFallbackIndex(page []byte) Option {
	return func(s *Server) { s.index = page }
}

// WithReady registers fn to run once the listener is bound, with the bound address.
func WithReady(fn func(addr string)) Option {
	return func(s *Server) { s.onReady = fn }
}

func New(sender Sender, addr, staticDir string, opts ...Option) *Server {
	s := &Server{
		sender:    sender,
		addr:      addr,
		staticDir: staticDir,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routing handler wrapped with request ids and access logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(http.HandlerFunc(s.route))
}

// ListenAndServe binds addr and serves until ctx is done, then shuts down gracefully.
// A bind failure is returned before the ready hook runs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.logger.Info("server: listening", "addr", ln.Addr().String())
	if s.onReady != nil {
		s.onReady(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server: stopped")
	return nil
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if r.URL.Path == "/" {
			s.handleIndex(w, r)
			return
		}
		http.FileServer(http.Dir(s.staticDir)).ServeHTTP(w, r)
	case http.MethodPost:
		if r.URL.Path == "/chat" {
			s.handleChat(w, r)
			return
		}
		http.NotFound(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.staticDir, indexFile)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	if s.index == nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, indexFile, time.Time{}, bytes.NewReader(s.index))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), s.logger)

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logger.Warn("server: malformed chat body", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	res, err := s.sender.Send(r.Context(), req.Prompt)
	if errors.Is(err, agent.ErrEmptyPrompt) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Error("server: chat turn failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if res.Status == agent.StatusCutOff {
		logger.Warn("server: chat turn cut off", "turn", res.ID, "steps", res.Steps)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(chatResponse{Response: res.Text}); err != nil {
		logger.Error("server: write chat response", "err", err)
	}
}
