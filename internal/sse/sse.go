// Package sse serves the MCP HTTP+SSE transport: clients open a
// long-lived event stream on /sse, learn their per-session message
// endpoint from the first event, and POST JSON-RPC requests to it.
// Responses travel back over the stream.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/searchfold/mcp-hybrid-search/internal/mcp"
)

// sessionBufferSize is the per-session outbound queue depth. A client
// that stops reading its stream loses messages once the queue fills;
// sends never block the POST handler.
const sessionBufferSize = 100

// keepAliveInterval is how often an idle stream receives a comment
// line to defeat proxy idle timeouts.
const keepAliveInterval = 15 * time.Second

// session is one connected SSE client.
type session struct {
	id       string
	outbound chan string
	done     chan struct{}
	closeOne sync.Once
}

func (s *session) close() {
	s.closeOne.Do(func() { close(s.done) })
}

// send queues a message without blocking. It reports false when the
// session is closed or its queue is full.
func (s *session) send(msg string) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outbound <- msg:
		return true
	default:
		return false
	}
}

// Handler serves the SSE transport over an MCP dispatch server.
type Handler struct {
	rpc    *mcp.Server
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewHandler builds the transport handler.
func NewHandler(rpc *mcp.Server, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		rpc:      rpc,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Routes registers the transport endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /sse", h.handleSSE)
	mux.HandleFunc("POST /message", h.handleMessage)
	mux.HandleFunc("GET /health", h.handleHealth)
}

// SessionCount reports the number of connected clients.
func (h *Handler) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Handler) register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.id] = s
}

func (h *Handler) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		s.close()
		delete(h.sessions, id)
	}
}

func (h *Handler) lookup(id string) *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// handleSSE opens the event stream. The first event tells the client
// where to POST its messages; everything after that is JSON-RPC
// responses for this session.
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	s := &session{
		id:       uuid.NewString(),
		outbound: make(chan string, sessionBufferSize),
		done:     make(chan struct{}),
	}
	h.register(s)
	defer h.unregister(s.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: /message?sessionId=%s\n\n", s.id)
	flusher.Flush()

	h.logger.Info("sse_session_opened", slog.String("session_id", s.id))

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("sse_session_closed", slog.String("session_id", s.id))
			return
		case <-s.done:
			return
		case msg := <-s.outbound:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// handleMessage accepts one JSON-RPC message for an open session. The
// RPC response, if any, is delivered over the session's event stream;
// the POST itself only acknowledges receipt.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusNotFound)
		return
	}

	s := h.lookup(sessionID)
	if s == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusInternalServerError)
		return
	}

	resp := h.rpc.HandleMessage(r.Context(), body)
	if resp == nil {
		// Notification: acknowledged, nothing to stream.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("sse_marshal_failed", slog.String("error", err.Error()))
		http.Error(w, "cannot encode response", http.StatusInternalServerError)
		return
	}

	if !s.send(string(payload)) {
		h.logger.Warn("sse_session_overflow", slog.String("session_id", sessionID))
		http.Error(w, "session closed or backed up", http.StatusGone)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "ok")
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler *Handler) error {
	mux := http.NewServeMux()
	handler.Routes(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		handler.logger.Info("sse_server_started", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
