// Package identity wraps the identity-provider boundary: sign-up, sign-in,
// sign-out, session tokens, and the session-change subscription that the
// rest of the application observes instead of polling.
//
// SESSION FLOW:
//  1. A client signs up or signs in (password or GitHub OAuth).
//  2. The provider issues a signed JWT session token; the handler stores it
//     in an HttpOnly cookie.
//  3. On subsequent requests the middleware validates the token and puts
//     the identity ID in the request context.
//  4. Sign-in, token refresh, and sign-out emit session-change events;
//     subscribers (the identity service) react — ensuring the profile row
//     exists is the important one.
//
// JWTs are stateless: the server stores no session data, and verification
// needs only the HMAC secret.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used to sign and verify tokens — the same secret serves both
// operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("identity: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The standard "sub" (Subject) claim carries the
// identity ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given identity ID with
// the default lifetime (24h). After expiry the client must sign in again or
// hit the refresh endpoint while the token is still valid.
func (s *TokenService) Generate(identityID string) (string, error) {
	return s.GenerateWithDuration(identityID, 24*time.Hour)
}

// GenerateWithDuration creates a token with a custom expiry duration.
func (s *TokenService) GenerateWithDuration(identityID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    "ideahub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("identity: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity ID it
// encodes. The library checks the signature, expiry, and issuer; pinning
// the valid methods to HS256 blocks algorithm-confusion tokens.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("identity: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("ideahub"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("identity: token expired")
		}
		return "", fmt.Errorf("identity: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("identity: invalid token claims")
	}

	identityID := c.Subject
	if identityID == "" {
		return "", fmt.Errorf("identity: token has no subject")
	}

	return identityID, nil
}
