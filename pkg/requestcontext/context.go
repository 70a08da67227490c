// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware and consumed by services. Keeping this package
// free of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	userID := requestcontext.UserID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithUserID(ctx, userID)
package requestcontext

import (
	"context"
	"time"

	id "suraksha/pkg/domain"
)

// Role classifies the authenticated caller for disclosure decisions.
type Role string

const (
	RolePublic  Role = "public"
	RoleWorker  Role = "worker"
	RolePolice  Role = "police"
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey      struct{}
	officerIDKey   struct{}
	companyIDKey   struct{}
	roleKey        struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// OfficerID retrieves the acting police officer's profile ID, if any.
func OfficerID(ctx context.Context) id.OfficerID {
	if officerID, ok := ctx.Value(officerIDKey{}).(id.OfficerID); ok {
		return officerID
	}
	return id.OfficerID{}
}

// WithOfficerID injects an officer profile ID into the context.
func WithOfficerID(ctx context.Context, officerID id.OfficerID) context.Context {
	return context.WithValue(ctx, officerIDKey{}, officerID)
}

// CompanyID retrieves the acting company's profile ID, if any.
func CompanyID(ctx context.Context) id.CompanyID {
	if companyID, ok := ctx.Value(companyIDKey{}).(id.CompanyID); ok {
		return companyID
	}
	return id.CompanyID{}
}

// WithCompanyID injects a company profile ID into the context.
func WithCompanyID(ctx context.Context, companyID id.CompanyID) context.Context {
	return context.WithValue(ctx, companyIDKey{}, companyID)
}

// CallerRole retrieves the caller's role. Unauthenticated requests are public.
func CallerRole(ctx context.Context) Role {
	if role, ok := ctx.Value(roleKey{}).(Role); ok {
		return role
	}
	return RolePublic
}

// WithCallerRole injects the caller's role into the context.
func WithCallerRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the normalized User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context so a whole request or test
// observes one consistent clock reading.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
