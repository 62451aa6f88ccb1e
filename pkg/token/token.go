// Package token generates random single-use codes such as password reset codes.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// ResetCodeBytes yields a 24 character hex reset code.
const ResetCodeBytes = 12

var ErrInvalidLength = errors.New("token: length must be positive")

// GenerateCode returns n random bytes hex encoded (2n characters).
func GenerateCode(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
