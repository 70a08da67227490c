// Package auth provides JWT authentication middleware.
// Validated claims are injected into the request context so handlers and
// services can read the caller's identity and role without touching the token.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "suraksha/pkg/domain"
	"suraksha/pkg/requestcontext"
)

// Claims represents the claims we expect from the token validator.
type Claims struct {
	UserID    id.UserID
	Role      requestcontext.Role
	OfficerID id.OfficerID
	CompanyID id.CompanyID
}

// TokenValidator defines the interface for validating JWT tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireAuth rejects requests without a valid Bearer token and injects the
// caller's identity into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, logger, r, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, logger, r, "Invalid or expired token")
				return
			}

			ctx := r.Context()
			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithCallerRole(ctx, claims.Role)
			if !claims.OfficerID.IsNil() {
				ctx = requestcontext.WithOfficerID(ctx, claims.OfficerID)
			}
			if !claims.CompanyID.IsNil() {
				ctx = requestcontext.WithCompanyID(ctx, claims.CompanyID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose caller role is not in the
// allowed set. Mount after RequireAuth.
func RequireRole(logger *slog.Logger, allowed ...requestcontext.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[requestcontext.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.CallerRole(ctx)
			if _, ok := allowedSet[role]; !ok {
				logger.WarnContext(ctx, "forbidden access - insufficient role",
					"role", role,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				if _, err := w.Write([]byte(`{"error":"forbidden","error_description":"Insufficient permissions"}`)); err != nil {
					logger.ErrorContext(ctx, "failed to write forbidden response",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, logger *slog.Logger, r *http.Request, description string) {
	ctx := r.Context()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := `{"error":"unauthorized","error_description":"` + description + `"}`
	if _, err := w.Write([]byte(body)); err != nil {
		logger.ErrorContext(ctx, "failed to write unauthorized response",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
