package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/xid"
)

// RequestIDHeader is read from incoming requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength caps client-supplied ids so they cannot bloat logs.
const maxRequestIDLength = 128

type requestIDKey struct{}

// RequestID assigns every request an id. A client-supplied X-Request-ID is
// kept (trimmed, truncated to 128 bytes); otherwise a new xid is generated.
// The id is stored in the request context and set on the response header.
//
// WHY xid?
// xids are 20 chars, sortable by creation time and need no coordination,
// which makes them easy to grep for across log lines.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := normalizeRequestID(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = xid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by RequestID, or "" outside a
// request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func normalizeRequestID(raw string) string {
	id := strings.TrimSpace(raw)
	if len(id) > maxRequestIDLength {
		id = id[:maxRequestIDLength]
	}
	return id
}
