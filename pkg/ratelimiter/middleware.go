package ratelimiter

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/authkit/pkg/clientip"
)

// KeyFunc extracts the bucket key from a request.
type KeyFunc func(r *http.Request) string

// ByIP keys buckets by the peer address.
func ByIP(r *http.Request) string {
	return clientip.GetIP(r)
}

// ByForwardedIP keys buckets by the client IP a reverse proxy reports.
func ByForwardedIP(r *http.Request) string {
	return clientip.GetForwardedIP(r)
}

// KeyByIP returns ByForwardedIP when the config trusts the proxy, ByIP otherwise.
func KeyByIP(cfg Config) KeyFunc {
	if cfg.TrustProxy {
		return ByForwardedIP
	}
	return ByIP
}

// DeniedFunc renders a rejection. err is non-nil when the store failed.
type DeniedFunc func(w http.ResponseWriter, r *http.Request, res *Result, err error)

// Middleware sets X-RateLimit-* headers and calls denied for rejected
// requests or store failures. Requests with an empty key pass through.
func Middleware(b *Bucket, keyFunc KeyFunc, denied DeniedFunc) func(http.Handler) http.Handler {
	if denied == nil {
		denied = defaultDenied
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), key)
			if err != nil {
				denied(w, r, nil, err)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				if secs := int(res.RetryAfter(time.Now()).Round(time.Second).Seconds()); secs > 0 {
					h.Set("Retry-After", strconv.Itoa(secs))
				}
				denied(w, r, res, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func defaultDenied(w http.ResponseWriter, _ *http.Request, _ *Result, err error) {
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
