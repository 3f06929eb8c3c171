package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fastfood-labs/order_service/internal/app/auth"
	"github.com/fastfood-labs/order_service/internal/errors"
	"github.com/fastfood-labs/order_service/internal/logging"
)

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("token", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func issue(t *testing.T, tokens *auth.TokenService, subject, role string) string {
	t.Helper()
	raw, err := tokens.Issue(auth.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: subject}})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return raw
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Detail
}

func TestNewAuthMiddleware(t *testing.T) {
	logger := logging.New("test", "info", "json")
	middleware := NewAuthMiddleware(newTokens(t), logger, []string{"/api/health_check", "/metrics"})

	if middleware.logger != logger {
		t.Error("logger not set correctly")
	}
	if len(middleware.skipPaths) != 2 {
		t.Errorf("skipPaths length = %d, want 2", len(middleware.skipPaths))
	}
}

func TestAuthMiddleware_Handler_SkipPaths(t *testing.T) {
	middleware := NewAuthMiddleware(newTokens(t), nil, []string{"/api/health_check"})
	handler := middleware.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health_check", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_Handler_MissingAuthHeader(t *testing.T) {
	handler := NewAuthMiddleware(newTokens(t), nil, nil).Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := detail(t, rec); got != "Not authenticated" {
		t.Errorf("detail = %q", got)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("missing WWW-Authenticate header")
	}
}

func TestAuthMiddleware_Handler_InvalidAuthHeaderFormat(t *testing.T) {
	handler := NewAuthMiddleware(newTokens(t), nil, nil).Handler(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token123"},
		{"wrong prefix", "Basic token123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_Handler_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	middleware := NewAuthMiddleware(tokens, nil, nil)

	var (
		capturedUserID string
		capturedRole   string
		capturedClaims auth.Claims
	)
	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID = GetUserID(r.Context())
		capturedRole = GetUserRole(r.Context())
		capturedClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "7", auth.RoleClient))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if capturedUserID != "7" {
		t.Errorf("User ID = %v, want 7", capturedUserID)
	}
	if capturedRole != auth.RoleClient || capturedClaims.Role != auth.RoleClient {
		t.Errorf("Role = %v, want client", capturedRole)
	}
}

func TestAuthMiddleware_Handler_ExpiredOrForeignToken(t *testing.T) {
	expired, err := auth.NewTokenService("token", "HS256", time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := auth.NewTokenService("other", "HS256", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	handler := NewAuthMiddleware(newTokens(t), nil, nil).Handler(okHandler())

	for name, raw := range map[string]string{
		"expired": issue(t, expired, "admin", auth.RoleAdministrator),
		"foreign": issue(t, foreign, "admin", auth.RoleAdministrator),
	} {
		t.Run(name, func(t *testing.T) {
			time.Sleep(time.Millisecond)
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			req.Header.Set("Authorization", "Bearer "+raw)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if got := detail(t, rec); got != "Invalid token or expired" {
				t.Errorf("detail = %q", got)
			}
		})
	}
}

func TestAuthMiddleware_RequireRoleHandler(t *testing.T) {
	tokens := newTokens(t)
	middleware := NewAuthMiddleware(tokens, nil, nil)
	handler := middleware.Handler(middleware.RequireRoleHandler(auth.RoleAdministrator)(okHandler()))

	tests := []struct {
		role string
		want int
	}{
		{auth.RoleAdministrator, http.StatusOK},
		{auth.RoleClient, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
			req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "1", tt.role))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	tokens := newTokens(t)
	middleware := NewAuthMiddleware(tokens, nil, nil)

	if _, err := middleware.Authenticate(""); errors.HTTPStatus(err) != http.StatusUnauthorized {
		t.Errorf("empty token err = %v", err)
	}

	claims, err := middleware.Authenticate(issue(t, tokens, "1", auth.RoleClient))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := middleware.RequireRole(claims, auth.RoleClient); err != nil {
		t.Errorf("require client role: %v", err)
	}
	if _, err := middleware.RequireRole(claims, auth.RoleAdministrator); errors.HTTPStatus(err) != http.StatusForbidden {
		t.Errorf("require admin role err = %v", err)
	}
}
