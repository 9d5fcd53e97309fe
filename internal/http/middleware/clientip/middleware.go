package clientip

import (
	"net"
	"net/http"
	"strings"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

// Resolve returns the client address of the request. Proxy headers are only
// used when trusted.
func Resolve(r *http.Request, trustHeaders bool) string {
	if trustHeaders {
		xff := r.Header.Get("X-Forwarded-For")
		if xff != "" {
			ips := strings.Split(xff, ",")
			if len(ips) > 0 {
				return strings.TrimSpace(ips[0])
			}
		}

		xri := r.Header.Get("X-Real-Ip")
		if xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

func Middleware(trustHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := httpCtx.SetClientIP(r.Context(), Resolve(r, trustHeaders))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
