package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/observability"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/util"
	"github.com/google/uuid"
)

const (
	keepAliveInterval = 30 * time.Second
	sessionQueueSize  = 32
	connectionsPerMin = 30
)

// SSE serves MCP over HTTP: clients hold GET /sse open and POST messages to
// /message?session_id=..., replies are pushed on the event stream.
type SSE struct {
	address string
	rpc     *dispatcher
	server  *http.Server

	mu       sync.RWMutex
	handler  Handler
	baseCtx  context.Context
	sessions map[string]*sseSession

	requestLimiter    *util.LimiterRegistry
	connectionLimiter *util.LimiterRegistry
}

type sseSession struct {
	id       string
	messages chan any
	done     chan struct{}
}

func NewSSE(address string, opts Options) (*SSE, error) {
	rpc, err := newDispatcher(opts)
	if err != nil {
		return nil, err
	}
	s := &SSE{
		address:  address,
		rpc:      rpc,
		baseCtx:  context.Background(),
		sessions: make(map[string]*sseSession),
	}
	if opts.RateLimit > 0 {
		s.requestLimiter = util.NewLimiterRegistry(opts.RateLimit, opts.RateBurst, 10*time.Minute)
		s.connectionLimiter = util.NewLimiterRegistry(float64(connectionsPerMin)/60.0, 5, 10*time.Minute)
	}
	return s, nil
}

// Routes returns the HTTP handler without binding a listener.
func (s *SSE) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", s.handleSSE)
	mux.HandleFunc("/message", s.handleMessage)
	return mux
}

// Bind sets the tool handler and the context message processing runs under.
func (s *SSE) Bind(ctx context.Context, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	if ctx != nil {
		s.baseCtx = ctx
	}
}

func (s *SSE) Start(ctx context.Context, handler Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.Bind(ctx, handler)

	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.rpc.opts.Logger.Info("mcp sse server listening", "address", s.address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

func (s *SSE) Stop() error {
	if s.requestLimiter != nil {
		s.requestLimiter.Close()
	}
	if s.connectionLimiter != nil {
		s.connectionLimiter.Close()
	}
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *SSE) handleSSE(w http.ResponseWriter, r *http.Request) {
	if s.connectionLimiter != nil && !s.connectionLimiter.Get(clientIP(r)).Allow(1) {
		observability.MCPRateLimitedTotal.Inc()
		w.Header().Set("Retry-After", "60")
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	session := &sseSession{
		id:       uuid.NewString(),
		messages: make(chan any, sessionQueueSize),
		done:     make(chan struct{}),
	}
	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, session.id)
		s.mu.Unlock()
		close(session.done)
		if s.requestLimiter != nil {
			s.requestLimiter.Forget(session.id)
		}
	}()

	fmt.Fprintf(w, "event: endpoint\ndata: /message?session_id=%s\n\n", session.id)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case msg := <-session.messages:
			data, err := json.Marshal(msg)
			if err != nil {
				s.rpc.opts.Logger.Warn("mcp sse message encode failed", "session", session.id, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ":\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *SSE) handleMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "Missing session_id", http.StatusBadRequest)
		return
	}
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	handler := s.handler
	baseCtx := s.baseCtx
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "Invalid session_id", http.StatusNotFound)
		return
	}

	if s.requestLimiter != nil && !s.requestLimiter.Get(sessionID).Allow(1) {
		observability.MCPRateLimitedTotal.Inc()
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var raw map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&raw); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if handler == nil {
		http.Error(w, "Server not ready", http.StatusServiceUnavailable)
		return
	}

	go func() {
		resp := s.rpc.process(baseCtx, handler, raw)
		if resp == nil {
			return
		}
		select {
		case session.messages <- resp:
		case <-session.done:
		case <-baseCtx.Done():
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

// SessionCount reports open event streams.
func (s *SSE) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
