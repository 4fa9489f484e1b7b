package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sarahcave/coachos/internal/observability"
)

const headerRequestID = "X-Request-ID"

// RequestID assigns each request a correlation ID, reusing the client's
// X-Request-ID when one was sent (Airtable automation scripts forward theirs)
// and minting a UUIDv7 otherwise. The ID goes into the context for the log
// handler and is echoed back on the response. Sits outermost in the chain so
// even rejected requests carry one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		w.Header().Set(headerRequestID, id)

		ctx := context.WithValue(r.Context(), observability.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(headerRequestID); id != "" {
		return id
	}

	return uuid.Must(uuid.NewV7()).String()
}
