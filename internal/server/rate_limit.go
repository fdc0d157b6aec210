package server

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter admits a fixed number of requests per client and window. A
// client is identified by its IP address. Forwarding headers are only
// honored when the connection comes from a trusted proxy.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*window
	rate     int
	period   time.Duration
	cleanup  time.Duration
	trusted  []netip.Prefix
	now      func() time.Time
	stopOnce sync.Once
	stopChan chan struct{}
}

// window is the request budget left to one client.
type window struct {
	remaining int
	start     time.Time
}

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerMinute is the number of requests admitted per client and
	// minute. Default: 60
	RequestsPerMinute int
	// CleanupInterval is how often idle clients are forgotten.
	// Default: 5 minutes
	CleanupInterval time.Duration
	// TrustedProxies lists the networks whose X-Forwarded-For and X-Real-IP
	// headers are believed. Default: none, so clients are keyed by the
	// connection address.
	TrustedProxies []netip.Prefix
}

// DefaultRateLimiterConfig returns the default rate limiter configuration.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
// Call Stop to release it.
//
// Parameters:
//   - config: The rate limiter configuration.
//
// Returns:
//   - *RateLimiter: A new rate limiter instance.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 60
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		clients:  make(map[string]*window),
		rate:     config.RequestsPerMinute,
		period:   time.Minute,
		cleanup:  config.CleanupInterval,
		trusted:  config.TrustedProxies,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether a request from client is admitted, and consumes one
// unit of its budget if so.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[client]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.clients[client] = &window{remaining: rl.rate - 1, start: now}
		return true
	}
	if w.remaining > 0 {
		w.remaining--
		return true
	}
	return false
}

// RetryAfter returns the time until client's window resets.
func (rl *RateLimiter) RetryAfter(client string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.clients[client]
	if !ok {
		return 0
	}
	return max(0, rl.period-rl.now().Sub(w.start))
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for client, w := range rl.clients {
				if now.Sub(w.start) > 2*rl.period {
					delete(rl.clients, client)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

// RateLimitMiddleware rejects requests over the client's budget with 429.
//
// Parameters:
//   - rl: The rate limiter to use.
//   - next: The next handler in the chain.
//
// Returns:
//   - http.HandlerFunc: A new handler with rate limiting capability.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := rl.ClientIP(r)
		if !rl.Allow(client) {
			seconds := int(rl.RetryAfter(client).Seconds()) + 1
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too Many Requests","message":"Rate limit exceeded. Please try again later."}`))
			return
		}
		next(w, r)
	}
}

// ClientIP returns the address requests from r are counted against.
func (rl *RateLimiter) ClientIP(r *http.Request) string {
	return getClientIP(r, rl.trusted)
}

// getClientIP extracts the client IP address from the request. When the
// connection comes from a trusted proxy, the rightmost X-Forwarded-For entry
// that is not itself a trusted proxy is used, then X-Real-IP. Otherwise the
// headers are ignored and RemoteAddr is used.
func getClientIP(r *http.Request, trusted []netip.Prefix) string {
	remote := stripPort(r.RemoteAddr)
	if !isTrusted(remote, trusted) {
		return remote
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remote
}

// isTrusted reports whether addr is an IP address inside one of trusted.
func isTrusted(addr string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// stripPort removes the port from an address string.
//
// Examples:
//   - "127.0.0.1:8080" -> "127.0.0.1"
//   - "[::1]:8080" -> "::1"
//   - "192.168.1.1" -> "192.168.1.1" (no port)
func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return strings.Trim(addr, "[]")
	}
	return host
}
