// Package auth provides session tokens, password hashing, the Google
// identity exchange, and the HTTP middleware that guards protected routes.
//
// A session token is a signed HS256 JWT carrying {sub: userID, name,
// avatarUrl, exp: issue+7 days}. Everything outside this package treats
// the token as opaque: handlers receive the resolved user id from the
// request context, never the raw token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued session token stays valid.
const TokenTTL = 7 * 24 * time.Hour

const issuer = "nlw-copa-server"

// Identity is the payload a token asserts about its holder. Name and
// AvatarURL ride along so clients can render the logged-in user without
// an extra round trip; the subject (user id) is the only field the
// server itself trusts for decisions.
type Identity struct {
	UserID    string
	Name      string
	AvatarURL string
}

// TokenService signs and verifies session tokens.
//
// It holds the HMAC secret used for both operations. The same secret
// must be configured on every instance that verifies tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// sessionClaims is the JWT payload. jwt.RegisteredClaims supplies the
// standard sub/iat/exp/iss fields; name and avatarUrl are our additions.
type sessionClaims struct {
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given identity,
// valid for TokenTTL (7 days).
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, TokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used by tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := sessionClaims{
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the identity
// it encodes.
//
// The jwt library checks the signature, the expiry, and the issuer;
// jwt.WithValidMethods pins the algorithm to HS256 so a token claiming
// "none" or an asymmetric method is rejected outright.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{
		UserID:    c.Subject,
		Name:      c.Name,
		AvatarURL: c.AvatarURL,
	}, nil
}
