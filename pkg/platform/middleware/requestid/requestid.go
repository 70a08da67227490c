// Package requestid bridges chi's request ID middleware into the
// request context used by services and audit events.
package requestid

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"suraksha/pkg/requestcontext"
)

// Middleware copies the chi-assigned request ID into the request context.
// If chi's RequestID middleware is not mounted upstream, a fresh UUID is
// generated so every request still carries a correlation ID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
