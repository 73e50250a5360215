package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
)

type contextKey string

const tenantIDKey contextKey = "tenantID"

// NewTokenAuth builds the JWT verifier used for client tokens.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// Verifier extracts and verifies a bearer token from the request.
func Verifier(tokenAuth *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verifier(tokenAuth)
}

// TenantAuthenticator rejects requests without a valid token carrying a
// client_id claim, and stores the claim as the tenant identity.
func TenantAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		clientID, ok := claims["client_id"].(string)
		if !ok || clientID == "" {
			http.Error(w, "missing client_id claim", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDKey, clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithTenantID returns a copy of ctx carrying the tenant identity. Intended
// for tests and for deployments that authenticate upstream.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantID returns the authenticated tenant identity from the request
// context, or "" when the request is unauthenticated.
func TenantID(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}

// StaticTenant authenticates every request as the given tenant. Used when
// auth is disabled (no JWT secret configured).
func StaticTenant(tenantID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), tenantID)))
		})
	}
}
