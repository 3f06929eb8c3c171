// Package auth issues and verifies the signed access tokens handed to
// clients and administrators.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the token's role claim.
const (
	RoleAdministrator = "administrator"
	RoleClient        = "client"
)

// DefaultTTL is the token lifetime used when none is configured.
const DefaultTTL = 60 * time.Minute

// Claims is the token payload. Subject holds the client id for client tokens.
type Claims struct {
	Role     string `json:"role,omitempty"`
	ClientID int64  `json:"client_id,omitempty"`
	CPF      string `json:"cpf,omitempty"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies tokens with a shared HMAC secret.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service. algorithm is one of HS256, HS384
// or HS512.
func NewTokenService(secret, algorithm string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: empty signing secret")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", algorithm)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime stamped on issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs claims, stamping iat and exp (now + TTL) over whatever the
// caller set.
func (s *TokenService) Issue(claims Claims) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm and expiry of raw. It never panics;
// any malformed, tampered or expired token yields false.
func (s *TokenService) Verify(raw string) (Claims, bool) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, false
	}
	return claims, true
}
