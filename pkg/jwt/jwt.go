// Package jwt issues and verifies HS256 access and refresh tokens.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims are the registered claims plus the token type.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// Service signs and parses tokens with a single HMAC key.
type Service struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithIssuer sets the "iss" claim on issued tokens and requires it on parse.
func WithIssuer(iss string) Option {
	return func(s *Service) { s.issuer = iss }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(signingKey string, opts ...Option) (*Service, error) {
	if signingKey == "" {
		return nil, ErrMissingSigningKey
	}
	s := &Service{key: []byte(signingKey), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for subject valid for ttl. Every token gets a random jti
// so two tokens issued in the same second differ.
func (s *Service) Issue(subject, tokenType string, ttl time.Duration) (string, error) {
	if subject == "" || ttl <= 0 {
		return "", ErrInvalidClaims
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", errors.Join(ErrSigningFailed, err)
	}
	return signed, nil
}

// Parse verifies signature, expiry and issuer, then returns the claims.
func (s *Service) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	default:
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// ParseType parses token and requires its "typ" claim to equal tokenType.
func (s *Service) ParseType(token, tokenType string) (*Claims, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenType {
		return nil, ErrUnexpectedType
	}
	return claims, nil
}
