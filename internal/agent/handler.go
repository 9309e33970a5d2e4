package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/mindbloom/internal/api"
	"github.com/ashureev/mindbloom/internal/identity"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (64KiB).
const defaultMaxRequestBodySize = 64 << 10

const (
	defaultTranscriptLimit = 50
	maxTranscriptLimit     = 500
)

// HandlerConfig tunes request limits.
type HandlerConfig struct {
	MaxRequestBodySize int64
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

// Handler handles chat HTTP requests.
type Handler struct {
	agent       *Service
	rateLimiter *RateLimiter
	maxBodySize int64
}

// RateLimiter implements a per-user rate limiter.
// The key is userID only, not userID:sessionID, so clients cannot bypass
// throttling by rotating session IDs.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter and starts the background eviction goroutine.
// Call Stop to release it.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	rl.startEviction()
	return rl
}

// Allow checks if a request is allowed for the given key.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	recent := r.fresh(r.requests[key], now.Add(-r.window))

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

func (r *RateLimiter) fresh(times []time.Time, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

// evict removes keys with no requests inside the window.
func (r *RateLimiter) evict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.window)
	for key, times := range r.requests {
		if recent := r.fresh(times, cutoff); len(recent) == 0 {
			delete(r.requests, key)
		} else {
			r.requests[key] = recent
		}
	}
}

// startEviction runs a background goroutine that periodically removes expired
// keys from the requests map, preventing unbounded memory growth.
func (r *RateLimiter) startEviction() {
	go func() {
		ticker := time.NewTicker(r.window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.evict()
			case <-r.done:
				return
			}
		}
	}()
}

// Stop ends the eviction goroutine. It is safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// NewHandler creates a new chat handler.
func NewHandler(svc *Service, cfg HandlerConfig) *Handler {
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 30
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	return &Handler{
		agent:       svc,
		rateLimiter: NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		maxBodySize: cfg.MaxRequestBodySize,
	}
}

// HandleChat handles POST /api/chat requests.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if !h.rateLimiter.Allow(userID) {
		api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}

	req.UserID = userID
	req.SessionID = sessionID

	resp := h.agent.Chat(r.Context(), req)
	api.JSON(w, http.StatusOK, resp)
}

// HandleReset handles POST /api/chat/reset requests.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.agent.ResetSession(r.Context(), userID, sessionID); err != nil {
		// The in-memory state is already cleared; only the transcript survived.
		h.agent.logger.Warn("Transcript delete failed during reset", "user_id", userID, "session_id", sessionID, "error", err)
	}
	api.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// HandleTranscript handles GET /api/chat/transcript requests.
func (h *Handler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := defaultTranscriptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(parsed, maxTranscriptLimit)
	}

	turns, err := h.agent.Transcript(r.Context(), userID, sessionID, limit)
	if err != nil {
		h.agent.logger.Error("Failed to load transcript", "user_id", userID, "session_id", sessionID, "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	api.JSON(w, http.StatusOK, map[string]interface{}{"turns": turns})
}

// HandleStats handles GET /api/chat/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.agent.GetStats(r.Context())
	if err != nil {
		h.agent.logger.Error("Failed to load stats", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	api.JSON(w, http.StatusOK, stats)
}

// RegisterRoutes registers chat routes. Identity middleware must run first.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", h.HandleChat)
		r.Post("/reset", h.HandleReset)
		r.Get("/transcript", h.HandleTranscript)
		r.Get("/stats", h.HandleStats)
	})
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Stop()
}

// GetService returns the underlying agent service.
func (h *Handler) GetService() *Service {
	return h.agent
}
