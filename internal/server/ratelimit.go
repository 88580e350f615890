package server

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hiveops/hive-agent-go/internal/logging"
)

const (
	// defaultRateLimit is the sustained per-IP request rate (requests/second)
	// when the server config leaves RateLimit unset.
	defaultRateLimit = 10

	// defaultRateBurst is the per-IP burst when RateBurst is unset. Chat
	// clients tend to fire login+chat back to back, so the burst is double
	// the sustained rate.
	defaultRateBurst = 20

	// visitorTTL is how long an idle IP keeps its token bucket before the
	// sweeper reclaims it.
	visitorTTL = 5 * time.Minute
)

// visitor is one remote IP's token bucket plus the activity timestamp the
// sweeper uses to reclaim idle entries.
type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces a per-IP token-bucket limit across every route. The
// visitors map is swept once a minute so one-off clients do not accumulate.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	log      *slog.Logger
}

// newRateLimiter builds a rateLimiter and starts its sweeper goroutine.
// Calling the returned stop function terminates the sweeper.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		log:      log,
	}

	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				rl.sweep()
			}
		}
	}()

	return rl, func() { close(stopCh) }
}

// bucketFor returns the token bucket for ip, creating it on first sight and
// refreshing the activity timestamp either way.
func (rl *rateLimiter) bucketFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.bucket
}

// sweep drops visitors idle longer than visitorTTL.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-visitorTTL)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// middleware wraps next with the per-IP limit. Over-limit requests get
// 429 with a Retry-After header and a WARN log entry.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.bucketFor(ip).Allow() {
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. X-Forwarded-For is deliberately
// ignored; the server binds to loopback by default and the header is
// trivially spoofable.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
