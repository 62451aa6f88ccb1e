package jwt

import "errors"

var (
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrExpiredToken      = errors.New("jwt: token expired")
	ErrInvalidClaims     = errors.New("jwt: invalid claims")
	ErrUnexpectedType    = errors.New("jwt: unexpected token type")
	ErrSigningFailed     = errors.New("jwt: signing failed")
	ErrMissingToken      = errors.New("jwt: missing bearer token")
)
