package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/httprate"
)

// Rate limit policy per endpoint class, keyed by client IP. The windows are
// fixed policy; only the global on/off switch is configuration.
const (
	generalLimit  = 100
	generalWindow = 15 * time.Minute

	authFailureLimit  = 5
	authFailureWindow = 15 * time.Minute

	reportCreateLimit  = 10
	reportCreateWindow = time.Hour

	programCreateLimit  = 5
	programCreateWindow = 24 * time.Hour
)

type rateLimitedBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

func rateLimited(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retryAfter := retryAfterSeconds(w.Header())
		writeJSON(w, http.StatusTooManyRequests, rateLimitedBody{
			Error:      message,
			RetryAfter: retryAfter,
		})
	}
}

// retryAfterSeconds reads the Retry-After header httprate sets before
// invoking the limit handler; the failure limiter sets it the same way.
func retryAfterSeconds(h http.Header) int {
	if v, err := strconv.Atoi(h.Get("Retry-After")); err == nil && v > 0 {
		return v
	}
	return 1
}

func limitByIP(limit int, window time.Duration, message string) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited(message)),
		// httprate defaults to X-RateLimit-* names; the draft-standard names
		// are part of the response contract here.
		httprate.WithResponseHeaders(httprate.ResponseHeaders{
			Limit:      "RateLimit-Limit",
			Remaining:  "RateLimit-Remaining",
			Reset:      "RateLimit-Reset",
			RetryAfter: "Retry-After",
		}),
	)
}

// authFailureLimiter admits authentication attempts per client IP but only
// failed ones consume quota. A request is counted at admission and refunded
// when the handler responds with a success status, so two racing requests can
// never both slip past the boundary.
type authFailureLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*failureBucket
}

type failureBucket struct {
	windowStart time.Time
	count       int
}

func newAuthFailureLimiter(limit int, window time.Duration) *authFailureLimiter {
	return &authFailureLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*failureBucket),
	}
}

// admit counts one attempt. It returns whether the request may proceed plus
// the header values for the current window.
func (l *authFailureLimiter) admit(key string) (ok bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[key]
	if b == nil || now.Sub(b.windowStart) >= l.window {
		b = &failureBucket{windowStart: now}
		l.buckets[key] = b
	}
	reset = b.windowStart.Add(l.window)

	if b.count >= l.limit {
		return false, 0, reset
	}
	b.count++
	remaining = l.limit - b.count
	return true, remaining, reset
}

// refund uncounts a previously admitted attempt after a successful response.
func (l *authFailureLimiter) refund(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok && b.count > 0 {
		b.count--
	}
}

// sweep drops expired buckets once the map grows past a soft cap; called
// opportunistically from Handler.
func (l *authFailureLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buckets) <= 1024 {
		return
	}
	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.windowStart) >= l.window {
			delete(l.buckets, key)
		}
	}
}

// Handler wraps an authentication endpoint with the failure-only window.
func (l *authFailureLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.sweep()
		key := clientIP(r)

		ok, remaining, reset := l.admit(key)
		w.Header().Set("RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if !ok {
			retryAfter := int(time.Until(reset).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, rateLimitedBody{
				Error:      fmt.Sprintf("Too many authentication attempts, please try again in %s", l.window),
				RetryAfter: retryAfter,
			})
			return
		}

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		if sw.code < http.StatusBadRequest {
			l.refund(key)
		}
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
