package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"paisa/internal/ai"
	"paisa/internal/amqp"
	"paisa/internal/cache"
	"paisa/internal/feedback"
	applog "paisa/internal/log"
	"paisa/internal/store"
)

// Publisher hands work to the sync queue. Nil disables queueing and the
// handlers fall back to their synchronous paths.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, userID, transactionID string) error
	PublishTransactionDelete(ctx context.Context, userID, transactionID string) error
	PublishFeedback(ctx context.Context, msg amqp.FeedbackMessage) error
}

// Options bundles the collaborators a Server needs.
type Options struct {
	Store     store.Backend
	Hub       *store.Hub
	AI        *ai.Client
	Publisher Publisher
	Sender    feedback.Sender

	CacheTTL           time.Duration
	CacheMaxSize       int
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	store     store.Backend
	hub       *store.Hub
	ai        *ai.Client
	publisher Publisher
	sender    feedback.Sender

	dashCache   *cache.TTLCache[dashboardResponse]
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, logger *applog.Logger, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.CacheMaxSize <= 0 {
		opts.CacheMaxSize = 1000
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(applog.RequestIDMiddleware(requestID)(mux)),
		},
		store:       opts.Store,
		hub:         opts.Hub,
		ai:          opts.AI,
		publisher:   opts.Publisher,
		sender:      opts.Sender,
		dashCache:   cache.NewTTLCache[dashboardResponse](opts.CacheMaxSize, opts.CacheTTL),
		rateLimiter: newRateLimiter(opts.RateLimitPerMinute),
	}

	s.dashCache.StartJanitor(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/dashboard", s.withAPI(s.handleDashboard))
	mux.HandleFunc("/api/transactions", s.withAPI(s.handleTransactions))
	mux.HandleFunc("/api/transactions/stream", s.withAPI(s.handleTransactionStream))
	mux.HandleFunc("/api/transactions/{id}", s.withAPI(s.handleTransactionByID))
	mux.HandleFunc("/api/settings", s.withAPI(s.handleSettings))
	mux.HandleFunc("/api/ai/categorize", s.withAPI(s.handleCategorize))
	mux.HandleFunc("/api/ai/scan-receipt", s.withAPI(s.handleScanReceipt))
	mux.HandleFunc("/api/ai/suggest-budget", s.withAPI(s.handleSuggestBudget))
	mux.HandleFunc("/api/feedback", s.withAPI(s.handleFeedback))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.dashCache.StopJanitor()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withAPI adds security headers, request IDs, structured request logging,
// and rate limiting on mutating methods.
func (s *Server) withAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		ctx := r.Context()
		logger := applog.FromContext(ctx)

		logger.InfoContext(ctx, "Request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WithComponent(applog.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
// Flush is forwarded so SSE keeps working through the wrapper.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// requestID keeps a caller-supplied X-Request-ID, generating one otherwise.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return generateRequestID()
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(limit int) *rateLimiter {
	rl := &rateLimiter{
		limit:       limit,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= rl.limit
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
