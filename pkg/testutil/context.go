package testutil

import (
	"context"
	"net/http"

	"cleanghana/internal/platform/middleware"
)

// WithIdentity stamps an authenticated identity on the request context,
// simulating what RequireAuth does after token validation.
func WithIdentity(req *http.Request, identityID string) *http.Request {
	if identityID == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyIdentityID, identityID)
	return req.WithContext(ctx)
}

// WithRequestID stamps a correlation ID on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	if requestID == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyRequestID, requestID)
	return req.WithContext(ctx)
}
