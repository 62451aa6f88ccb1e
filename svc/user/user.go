// Package user owns the account record and its persistence.
package user

import (
	"context"
	"time"
)

// Theme is the UI theme preference stored on the account.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeViolet Theme = "violet"
)

// DefaultTheme is assigned to every new account.
const DefaultTheme = ThemeLight

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeViolet:
		return true
	}
	return false
}

// User is a registered account.
// ResetToken and ResetTokenExpiration are always set and cleared together.
type User struct {
	ID                   string     `bson:"_id"`
	Name                 string     `bson:"name"`
	Email                string     `bson:"email"`
	Password             string     `bson:"password"`
	AvatarURL            string     `bson:"avatarURL"`
	Token                string     `bson:"token"`
	RefreshToken         string     `bson:"refreshToken"`
	Theme                Theme      `bson:"theme"`
	ResetToken           string     `bson:"resetToken,omitempty"`
	ResetTokenExpiration *time.Time `bson:"resetTokenExpiration,omitempty"`
	CreatedAt            time.Time  `bson:"createdAt"`
	UpdatedAt            time.Time  `bson:"updatedAt"`
}

// ProfileUpdate lists profile fields to change. Nil fields are left untouched.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
	AvatarURL    *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil && u.AvatarURL == nil
}

// Storage persists accounts. Every mutation is a single conditional update
// on one document, so concurrent requests never interleave a read and a write.
type Storage interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SetToken replaces the access token and leaves the refresh token alone.
	SetToken(ctx context.Context, id, token string) error
	// SetTokens replaces both tokens. Empty strings clear them.
	SetTokens(ctx context.Context, id, token, refreshToken string) error
	// RotateTokens replaces both tokens only while the stored refresh token equals current.
	RotateTokens(ctx context.Context, id, current, token, refreshToken string) error

	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
	SetTheme(ctx context.Context, id string, theme Theme) (*User, error)

	// SetResetToken stores a reset code and its expiration in one update.
	SetResetToken(ctx context.Context, email, code string, expiresAt time.Time) (*User, error)
	// ConsumeResetToken sets passwordHash and clears the reset fields when
	// code matches and has not expired at now.
	ConsumeResetToken(ctx context.Context, code string, now time.Time, passwordHash string) (*User, error)
}

// Recorder receives newly created accounts for downstream consumers.
type Recorder interface {
	RecordCreated(ctx context.Context, u *User) error
}
