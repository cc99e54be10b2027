package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type requestIDKey struct{}

// withRequestID attaches a UUID to the request context and echoes it in the
// X-Request-ID response header.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestIDFrom(r.Context()))
	})
}

// RateLimiter enforces a per-client-IP request rate on top of a shared
// token-bucket configuration.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	rps      float64
	burst    int
	log      *log.Logger
	lastSwep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns a limiter allowing rps requests per second with the
// given burst per client IP.
func NewRateLimiter(rps float64, burst int, logger *log.Logger) *RateLimiter {
	if logger == nil {
		logger = log.Default()
	}
	return &RateLimiter{
		clients:  make(map[string]*client),
		rps:      rps,
		burst:    burst,
		log:      logger,
		lastSwep: time.Now(),
	}
}

// Wrap applies the limiter to next.
func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		rl.mu.Lock()
		c, ok := rl.clients[ip]
		if !ok {
			c = &client{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
			rl.clients[ip] = c
		}
		c.lastSeen = time.Now()
		rl.sweepLocked()
		rl.mu.Unlock()

		if !c.limiter.Allow() {
			rl.log.Warn("rate limit exceeded", "ip", ip)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sweepLocked drops clients idle for over five minutes, at most once a
// minute. Caller holds the mutex.
func (rl *RateLimiter) sweepLocked() {
	now := time.Now()
	if now.Sub(rl.lastSwep) < time.Minute {
		return
	}
	rl.lastSwep = now
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > 5*time.Minute {
			delete(rl.clients, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
