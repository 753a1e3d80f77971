package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/benchline/api/internal/model"
)

// TokenService issues and verifies HMAC-signed access tokens.
type TokenService struct {
	key    []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	Key             string
	Algorithm       string
	TokenExpiration time.Duration
}

// Claims carried by an access token.
type Claims struct {
	UserID int `json:"id"`
	jwt.RegisteredClaims
}

// NewTokenService creates a new token service
func NewTokenService(cfg TokenServiceConfig) (*TokenService, error) {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("signing key is empty")
	}
	ttl := cfg.TokenExpiration
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		key:    []byte(cfg.Key),
		method: method,
		ttl:    ttl,
	}, nil
}

// Generate returns a signed access token for the user
func (s *TokenService) Generate(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses a token string and returns its claims
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.key, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL returns the configured token lifetime
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
