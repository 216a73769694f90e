package handlers

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/postboard/apiserver/internal/auth"
	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/internal/metrics"
	"golang.org/x/time/rate"
)

// Authenticator decides whether a request carries a valid session.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (auth.Decision, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// the rejection reason. Authorized requests get the user in their context.
func RequireAuth(authenticator Authenticator, log *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := authenticator.Authenticate(r.Context(), r)
			if err != nil {
				m.AuthOutcome("verify", "error")
				log.Error("failed to verify token",
					slog.String("op", "handlers.RequireAuth"),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					logging.Err(err),
				)
				writeError(w, r, http.StatusInternalServerError, msgInternal)
				return
			}
			if !decision.Authorized() {
				m.AuthOutcome("verify", strings.ReplaceAll(decision.Reason.Error(), " ", "_"))
				writeError(w, r, http.StatusUnauthorized, decision.Reason.Error())
				return
			}

			m.AuthOutcome("verify", "success")
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), decision.User)))
		})
	}
}

const limiterIdleTTL = 10 * time.Minute

// RateLimiter applies a token bucket per client address.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:     rate.Limit(perSecond),
		burst:     burst,
		clients:   make(map[string]*clientLimiter),
		lastSweep: time.Now(),
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

// Middleware answers 429 once a client exceeds its budget.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientKey(r)) {
			writeError(w, r, http.StatusTooManyRequests, msgTooManyRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the remote host; RealIP has already applied forwarding headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
