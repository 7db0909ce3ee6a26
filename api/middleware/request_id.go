package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"

	// maxInboundRequestIDLen bounds ids forwarded by proxies so a hostile
	// client cannot inflate every log line.
	maxInboundRequestIDLen = 64
)

// RequestID tags each request with an id, echoing a sane inbound one or
// minting a fresh uuid, and attaches it to the request-scoped logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := sanitizeRequestID(r.Header.Get(requestIDHeader))
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sanitizeRequestID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxInboundRequestIDLen {
		return ""
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ""
		}
	}
	return id
}
