// Package gravatar derives default avatar URLs from email addresses.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

const baseURL = "https://www.gravatar.com/avatar/"

// URL returns the identicon Gravatar URL (250px) for email.
// The address is trimmed and lower-cased before hashing.
func URL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("%s%s?s=250&d=identicon", baseURL, hex.EncodeToString(sum[:]))
}
