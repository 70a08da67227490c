package testutil

import (
	"context"
	"net/http"

	id "suraksha/pkg/domain"
	"suraksha/pkg/requestcontext"
)

// WithUser adds an authenticated user and role to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the userID is not a valid UUID, only the role is added.
func WithUser(req *http.Request, userID string, role requestcontext.Role) *http.Request {
	ctx := requestcontext.WithCallerRole(req.Context(), role)
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	return req.WithContext(ctx)
}

// WithOfficer adds a police officer identity to the request context.
// Invalid IDs are silently ignored.
func WithOfficer(req *http.Request, userID, officerID string) *http.Request {
	ctx := requestcontext.WithCallerRole(req.Context(), requestcontext.RolePolice)
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if parsed, err := id.ParseOfficerID(officerID); err == nil {
		ctx = requestcontext.WithOfficerID(ctx, parsed)
	}
	return req.WithContext(ctx)
}

// WithCompany adds a company identity to the request context.
// Invalid IDs are silently ignored.
func WithCompany(req *http.Request, userID, companyID string) *http.Request {
	ctx := requestcontext.WithCallerRole(req.Context(), requestcontext.RoleCompany)
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if parsed, err := id.ParseCompanyID(companyID); err == nil {
		ctx = requestcontext.WithCompanyID(ctx, parsed)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
