package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/otoshop/otoshop/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket refilled at RequestsPerWindow per Window,
// holding at most Burst tokens.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Presets used by the auth router. Each can be overridden from the
// environment with RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST.
var (
	// StrictLimit guards credential checks: login and registration.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards token refresh and account management.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards the health probes.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
)

func init() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
}

// ParseRateLimitFromEnv returns def with any positive
// RATELIMIT_<prefix>_{REQUESTS,WINDOW_SEC,BURST} values applied. Malformed or
// non-positive values are ignored.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	envInt := func(field string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv("RATELIMIT_" + prefix + "_" + field))
		return n, err == nil && n > 0
	}

	cfg := def
	if n, ok := envInt("REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := envInt("WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := envInt("BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

// KeyExtractor names the bucket a request draws from. An empty key exempts
// the request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys by client address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ContextKeyExtractor keys requests by a value stored in the request
// context, such as the authenticated account id.
func ContextKeyExtractor(fn func(context.Context) string) KeyExtractor {
	return func(r *http.Request) string {
		return fn(r.Context())
	}
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep,
// e.g. "10.0.0.1:alice".
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// JSONFieldKeyExtractor extracts a top-level string field from a JSON body
// and restores the body for the next handler. Use it to key login attempts
// by identifier.
func JSONFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil {
			return ""
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return ""
		}
		var v string
		if err := json.Unmarshal(fields[fieldName], &v); err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// idleSweepInterval bounds how often idle buckets are dropped.
const idleSweepInterval = 5 * time.Minute

// keyedLimiter holds one token bucket per key.
type keyedLimiter struct {
	buckets sync.Map // string -> *rate.Limiter
	limit   rate.Limit
	burst   int

	mu        sync.Mutex
	lastSweep time.Time
}

func (kl *keyedLimiter) bucket(key string) *rate.Limiter {
	if b, ok := kl.buckets.Load(key); ok {
		return b.(*rate.Limiter)
	}
	b, _ := kl.buckets.LoadOrStore(key, rate.NewLimiter(kl.limit, kl.burst))
	kl.sweep()
	return b.(*rate.Limiter)
}

// sweep drops buckets that have refilled completely. A full bucket behaves
// exactly like a new one, so dropping it loses nothing.
func (kl *keyedLimiter) sweep() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	if time.Since(kl.lastSweep) < idleSweepInterval {
		return
	}
	kl.lastSweep = time.Now()
	kl.buckets.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(kl.burst) {
			kl.buckets.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware rejects requests whose bucket is empty with 429
// RATE_LIMIT_EXCEEDED and a Retry-After header.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	kl := &keyedLimiter{
		limit:     rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:     config.Burst,
		lastSweep: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: no key for request, letting it through")
				next.ServeHTTP(w, r)
				return
			}

			b := kl.bucket(key)
			if b.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			// Peek at the next token without spending it.
			res := b.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", config.Window.String())
			log.Warn("rate limit exceeded",
				"key", key,
				"endpoint", r.URL.Path,
				"retry_after", retryAfter,
			)
			WriteError(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP keys by client address alone.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}

// RateLimitByIPAndJSONField limits by IP + a JSON body field, e.g. the
// login identifier.
func RateLimitByIPAndJSONField(config RateLimitConfig, fieldName string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		IPKeyExtractor,
		JSONFieldKeyExtractor(fieldName),
	))
}
