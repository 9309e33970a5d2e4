package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/mindbloom/internal/companion"
	"github.com/ashureev/mindbloom/internal/identity"
)

const wsWriteTimeout = 10 * time.Second

// ConnectionManager tracks the single live WebSocket for each chat session.
type ConnectionManager struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
}

// NewConnectionManager creates an empty connection manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		active: make(map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a user and session.
func (m *ConnectionManager) GetActive(userID, sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[companion.SessionKey(userID, sessionID)]
}

// Register makes conn the session's connection, closing any connection it replaces.
func (m *ConnectionManager) Register(userID, sessionID string, conn *websocket.Conn) {
	key := companion.SessionKey(userID, sessionID)

	m.mu.Lock()
	existing := m.active[key]
	m.active[key] = conn
	m.mu.Unlock()

	if existing != nil && existing != conn {
		// Close waits for the peer's handshake; don't stall the new connection on it.
		go func() { _ = existing.Close(websocket.StatusNormalClosure, "session replaced") }()
	}
	slog.Info("Chat connection registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes conn if it is still the session's connection.
func (m *ConnectionManager) Unregister(userID, sessionID string, conn *websocket.Conn) {
	key := companion.SessionKey(userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.active[key]; ok && current == conn {
		delete(m.active, key)
		slog.Info("Chat connection unregistered", "user_id", userID, "session_id", sessionID)
	}
}

// CloseAll closes every live connection with StatusGoingAway.
func (m *ConnectionManager) CloseAll() {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.active))
	for _, conn := range m.active {
		conns = append(conns, conn)
	}
	m.mu.Unlock()

	for _, conn := range conns {
		go func() { _ = conn.Close(websocket.StatusGoingAway, "server shutting down") }()
	}
}

// Count returns the number of live connections.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// wsInbound is a client frame.
type wsInbound struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// wsOutbound is a server frame.
type wsOutbound struct {
	Type     string `json:"type"`
	Response string `json:"response,omitempty"`
	FollowUp string `json:"follow_up,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebSocketHandler serves the chat over a WebSocket.
type WebSocketHandler struct {
	agent         *Service
	conns         *ConnectionManager
	rateLimiter   *RateLimiter
	readLimit     int64
	allowedOrigin string
	isDev         bool
	active        sync.WaitGroup
}

// WebSocket returns a WebSocket transport sharing this handler's service and rate limiter.
func (h *Handler) WebSocket(conns *ConnectionManager, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		agent:         h.agent,
		conns:         conns,
		rateLimiter:   h.rateLimiter,
		readLimit:     h.maxBodySize,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	h.active.Add(1)
	defer h.active.Done()

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()
	if h.readLimit > 0 {
		ws.SetReadLimit(h.readLimit)
	}

	h.conns.Register(userID, sessionID, ws)
	defer h.conns.Unregister(userID, sessionID, ws)

	h.readLoop(r.Context(), ws, userID, sessionID)
	slog.Info("Chat connection ended", "user_id", userID, "session_id", sessionID)
}

// Shutdown closes every chat connection and waits for in-flight turns to
// finish, or for ctx to end. http.Server.Shutdown does not wait for
// hijacked connections, so call this before releasing the transcript store.
func (h *WebSocketHandler) Shutdown(ctx context.Context) error {
	h.conns.CloseAll()

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, userID, sessionID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else if ctx.Err() == nil {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			if !h.write(ctx, ws, wsOutbound{Type: "error", Error: "invalid message"}) {
				return
			}
			continue
		}

		var out wsOutbound
		switch msg.Type {
		case "message":
			out = h.handleMessage(ctx, userID, sessionID, msg.Content)
		case "reset":
			out = wsOutbound{Type: "reset"}
			if err := h.agent.ResetSession(ctx, userID, sessionID); err != nil {
				slog.Warn("Transcript delete failed during reset", "user_id", userID, "session_id", sessionID, "error", err)
			}
		case "ping":
			out = wsOutbound{Type: "pong"}
		default:
			out = wsOutbound{Type: "error", Error: "unknown message type"}
		}

		if !h.write(ctx, ws, out) {
			return
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, userID, sessionID, content string) wsOutbound {
	if strings.TrimSpace(content) == "" {
		return wsOutbound{Type: "error", Error: "message is required"}
	}
	if h.rateLimiter != nil && !h.rateLimiter.Allow(userID) {
		return wsOutbound{Type: "error", Error: "rate limit exceeded"}
	}

	resp := h.agent.Chat(ctx, ChatRequest{
		Message:   content,
		UserID:    userID,
		SessionID: sessionID,
	})
	return wsOutbound{Type: "reply", Response: resp.Response, FollowUp: resp.FollowUp}
}

func (h *WebSocketHandler) write(ctx context.Context, ws *websocket.Conn, v wsOutbound) bool {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, ws, v); err != nil {
		slog.Debug("Failed to write WebSocket frame", "error", err)
		return false
	}
	return true
}
