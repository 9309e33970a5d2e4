package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/mindbloom/internal/agent"
	"github.com/ashureev/mindbloom/internal/companion"
	"github.com/ashureev/mindbloom/internal/config"
	"github.com/ashureev/mindbloom/internal/identity"
	"github.com/ashureev/mindbloom/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Port:               "0",
		MaxRequestBodySize: 1 << 10,
		RateLimit:          config.RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute},
		Responder:          config.ResponderConfig{Kind: config.ResponderScripted},
	}
	svc := newService(cfg, quietLogger, companion.NewSessionStore(), store.Nop{})
	h := agent.NewHandler(svc, agent.HandlerConfig{
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RateLimitRequests:  cfg.RateLimit.RequestsPerWindow,
		RateLimitWindow:    cfg.RateLimit.WindowDuration,
	})
	t.Cleanup(h.Close)
	ws := h.WebSocket(agent.NewConnectionManager(), cfg.FrontendURL, cfg.IsDevelopment())
	return newRouter(cfg, store.Nop{}, h, ws)
}

func TestRouterHealthAndPing(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterChatIssuesIdentity(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"I feel so lonely"}`))
	req.Header.Set(identity.SessionHeaderName, "tab-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"response"`)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == identity.AnonCookieName && strings.HasPrefix(c.Value, "anon_") {
			found = true
		}
	}
	assert.True(t, found, "expected an anonymous identity cookie")
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, allowedOrigins(&config.Config{}))
	assert.Equal(t, []string{"https://app.example"}, allowedOrigins(&config.Config{FrontendURL: "https://app.example"}))
}
