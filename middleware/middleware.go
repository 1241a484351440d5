package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/codetesla51/gatez/gate"
)

// Limiter is the slice of the gate API the middleware needs. Both
// *gate.KeyedLimiter and custom wrappers satisfy it.
type Limiter interface {
	Allow(ctx context.Context, key string) (gate.Result, error)
}

// KeyFunc extracts the gate key from an HTTP request. Returning "" lets the
// request pass ungated.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by client IP. This is the default KeyFunc.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type options struct {
	keyFunc   KeyFunc
	logger    *zap.Logger
	onLimited func(w http.ResponseWriter, r *http.Request, res gate.Result)
	excluded  map[string]bool
}

type Option func(*options)

// WithKeyFunc overrides how the gate key is derived from a request.
func WithKeyFunc(fn KeyFunc) Option {
	return func(o *options) { o.keyFunc = fn }
}

// WithLogger sets the logger used when the limiter itself fails.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOnLimited replaces the default 429 JSON response.
func WithOnLimited(fn func(w http.ResponseWriter, r *http.Request, res gate.Result)) Option {
	return func(o *options) { o.onLimited = fn }
}

// WithExcludedPaths lists paths that bypass the gate entirely.
func WithExcludedPaths(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			o.excluded[p] = true
		}
	}
}

// RateLimit gates requests through l, keyed per request. Denied requests get
// a 429 with Retry-After; when the limiter itself fails the request is let
// through (fail open) and the error is logged.
func RateLimit(l Limiter, opts ...Option) func(http.Handler) http.Handler {
	o := &options{
		keyFunc:   ClientIP,
		logger:    zap.NewNop(),
		onLimited: defaultOnLimited,
		excluded:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if o.excluded[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := o.keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.Allow(r.Context(), key)
			if err != nil {
				// Fail open
				o.logger.Error("gate check failed",
					zap.String("key", key),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				o.onLimited(w, r, res)
				return
			}

			setRateLimitHeaders(w, res)
			next.ServeHTTP(w, r)
		})
	}
}

// defaultOnLimited sends a 429 with Retry-After and a JSON body.
func defaultOnLimited(w http.ResponseWriter, r *http.Request, res gate.Result) {
	setRateLimitHeaders(w, res)
	w.Header().Set("Content-Type", "application/json")
	if secs := res.RetryAfterSeconds(); secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "rate_limited",
			"message": "too many attempts",
		},
		"retry_after_seconds": res.RetryAfterSeconds(),
	})
}

func setRateLimitHeaders(w http.ResponseWriter, res gate.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
}
