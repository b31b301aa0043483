// Copyright (c) 2026 SafHub. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/constants"
	"github.com/safhub/safhub/internal/platform/respond"
)

// Limits is a per-client token bucket. A zero RPS disables limiting.
type Limits struct {
	RPS   float64
	Burst int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets keeps one token bucket per client IP.
type buckets struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limits  Limits
}

func (store *buckets) reserve(clientIP string, now time.Time) (bool, time.Duration) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, found := store.clients[clientIP]
	if !found {
		entry = &bucket{limiter: rate.NewLimiter(rate.Limit(store.limits.RPS), max(store.limits.Burst, 1))}
		store.clients[clientIP] = entry
	}
	entry.lastSeen = now

	if entry.limiter.AllowN(now, 1) {
		return true, 0
	}
	// One token refills after 1/RPS.
	return false, time.Duration(float64(time.Second) / store.limits.RPS)
}

func (store *buckets) sweep(now time.Time, ttl time.Duration) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for ip, entry := range store.clients {
		if now.Sub(entry.lastSeen) > ttl {
			delete(store.clients, ip)
		}
	}
}

/*
RateLimit throttles each client IP with its own token bucket.

Description: The server applies a loose limit to every route and a tight
one to /auth/v1, where password guessing happens. A throttled request gets
429 RATE_LIMITED with a Retry-After header. Idle buckets are swept until
context is cancelled.
*/
func RateLimit(context context.Context, limits Limits) func(http.Handler) http.Handler {
	if limits.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	store := &buckets{clients: make(map[string]*bucket), limits: limits}

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				store.sweep(now, constants.RateLimitClientTTL)
			case <-context.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			allowed, wait := store.reserve(RealIP(request), time.Now())
			if !allowed {
				seconds := max(int(wait.Round(time.Second)/time.Second), 1)
				writer.Header().Set("Retry-After", strconv.Itoa(seconds))
				respond.Error(writer, request, apperr.RateLimited(seconds))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
