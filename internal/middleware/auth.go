// Package middleware provides HTTP middleware for the order service
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fastfood-labs/order_service/internal/app/auth"
	"github.com/fastfood-labs/order_service/internal/app/metrics"
	"github.com/fastfood-labs/order_service/internal/errors"
	"github.com/fastfood-labs/order_service/internal/httputil"
	"github.com/fastfood-labs/order_service/internal/logging"
)

type claimsKey struct{}

// Verifier checks a raw token and returns its claims.
type Verifier interface {
	Verify(raw string) (auth.Claims, bool)
}

// AuthMiddleware is the access gate in front of protected routes. It is
// stateless: every request re-verifies its bearer token.
type AuthMiddleware struct {
	tokens    Verifier
	logger    *logging.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens Verifier, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	if logger == nil {
		logger = logging.NewDefault("auth")
	}

	return &AuthMiddleware{
		tokens:    tokens,
		logger:    logger,
		skipPaths: skip,
	}
}

// Authenticate verifies raw and returns its claims.
func (m *AuthMiddleware) Authenticate(raw string) (auth.Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return auth.Claims{}, errors.Unauthorized("")
	}
	claims, ok := m.tokens.Verify(raw)
	if !ok {
		return auth.Claims{}, errors.InvalidToken(nil)
	}
	return claims, nil
}

// RequireRole passes claims through when they carry role.
func (m *AuthMiddleware) RequireRole(claims auth.Claims, role string) (auth.Claims, error) {
	if claims.Role != role {
		return auth.Claims{}, errors.Forbidden("").WithDetails("required_role", role)
	}
	return claims, nil
}

// Handler returns the middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := bearerToken(r)
		if err != nil {
			m.reject(w, r, "missing_token", err)
			return
		}

		claims, err := m.Authenticate(raw)
		if err != nil {
			m.reject(w, r, "invalid_token", err)
			return
		}

		ctx := WithClaims(r.Context(), claims)
		m.logger.WithContext(ctx).WithField("role", claims.Role).Debug("Authentication successful")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoleHandler rejects authenticated callers whose role differs from
// role. It must run after Handler.
func (m *AuthMiddleware) RequireRoleHandler(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				m.reject(w, r, "missing_token", errors.Unauthorized(""))
				return
			}
			if _, err := m.RequireRole(claims, role); err != nil {
				m.reject(w, r, "forbidden", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.Unauthorized("")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("Invalid Authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, reason string, err error) {
	metrics.RecordAuthFailure(reason)
	status := errors.HTTPStatus(err)
	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": status,
	}).Warn("Authentication failed")

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	httputil.WriteError(w, err)
}

// WithClaims stores verified claims in ctx and exposes the subject and role
// to the request logger.
func WithClaims(ctx context.Context, claims auth.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey{}, claims)
	ctx = context.WithValue(ctx, logging.UserIDKey, claims.Subject)
	if claims.Role != "" {
		ctx = context.WithValue(ctx, logging.RoleKey, claims.Role)
	}
	return ctx
}

// ClaimsFromContext returns the claims stored by Handler.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return claims, ok
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

// GetUserRole extracts user role from context
func GetUserRole(ctx context.Context) string {
	return logging.GetRole(ctx)
}
