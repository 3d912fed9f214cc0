package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// RateLimit enforces a fixed-window per-client limit. Generation requests
// fan out to the model provider, so the window guards the expensive POST
// endpoint rather than the whole API.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		windows = map[string]*window{}
		sweepAt = time.Now().Add(per)
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)
			now := time.Now()

			mu.Lock()
			if now.After(sweepAt) {
				for k, win := range windows {
					if now.After(win.resetAt) {
						delete(windows, k)
					}
				}
				sweepAt = now.Add(per)
			}
			win, ok := windows[key]
			if !ok || now.After(win.resetAt) {
				win = &window{resetAt: now.Add(per)}
				windows[key] = win
			}
			win.count++
			exceeded := win.count > limit
			retryAfter := time.Until(win.resetAt)
			mu.Unlock()

			if exceeded {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"error":"rate_limited"}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterKey buckets by validated client IP. An unparseable forwarded
// header falls back to the socket address so a spoofed header cannot
// escape into an unbounded key space.
func limiterKey(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip.String()
		}
	}
	return r.RemoteAddr
}
