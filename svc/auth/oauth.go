package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/gravatar"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
	"github.com/dmitrymomot/authkit/svc/user"
)

// GoogleAuthURL returns the consent URL the browser is redirected to.
func (s *Service) GoogleAuthURL() (string, error) {
	if s.google == nil {
		return "", ErrProviderNotConfigured
	}
	return s.google.AuthURL("")
}

// GoogleLogin completes the authorization-code flow: it resolves the provider
// profile, finds or creates the matching account and stores a new access token.
// It returns the user together with that token. An existing account is only
// linked when the provider reports the email as verified.
func (s *Service) GoogleLogin(ctx context.Context, code string) (*user.User, string, error) {
	if s.google == nil {
		return nil, "", ErrProviderNotConfigured
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, "", ErrMissingCode
	}

	profile, err := s.google.ResolveProfile(ctx, code)
	if err != nil {
		return nil, "", err
	}
	profile.Email = sanitizer.NormalizeEmail(profile.Email)
	if profile.Email == "" {
		return nil, "", ErrNoPrimaryEmail
	}

	u, err := s.users.GetUserByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if !profile.EmailVerified {
			s.log.WarnContext(ctx, "oauth email not verified, refusing to link",
				logger.UserID(u.ID), logger.Provider(s.google.ProviderID()))
			return nil, "", ErrEmailNotVerified
		}
		token, err := s.tokens.Issue(u.ID, jwt.TypeAccess, s.cfg.OAuthTokenTTL)
		if err != nil {
			return nil, "", err
		}
		if err := s.users.SetToken(ctx, u.ID, token); err != nil {
			return nil, "", fmt.Errorf("store token: %w", err)
		}
		u.Token = token
		s.log.InfoContext(ctx, "oauth user signed in",
			logger.UserID(u.ID), logger.Provider(s.google.ProviderID()), logger.Event("user.oauth_signed_in"))
		return u, token, nil
	case errors.Is(err, user.ErrUserNotFound):
		return s.createOAuthUser(ctx, profile)
	default:
		return nil, "", fmt.Errorf("find user: %w", err)
	}
}

func (s *Service) createOAuthUser(ctx context.Context, profile ProviderProfile) (*user.User, string, error) {
	// The provider id hash is a placeholder credential; it is never used for password login.
	placeholder, err := s.hasher.Hash(profile.ProviderUserID)
	if err != nil {
		return nil, "", err
	}

	id := s.newID()
	token, err := s.tokens.Issue(id, jwt.TypeAccess, s.cfg.OAuthTokenTTL)
	if err != nil {
		return nil, "", err
	}

	name := sanitizer.Apply(profile.Name, sanitizer.Trim, sanitizer.NormalizeWhitespace)
	if name == "" {
		name, _, _ = strings.Cut(profile.Email, "@")
	}
	avatar := profile.AvatarURL
	if avatar == "" {
		avatar = gravatar.URL(profile.Email)
	}

	now := s.now()
	u := &user.User{
		ID:        id,
		Name:      name,
		Email:     profile.Email,
		Password:  placeholder,
		AvatarURL: avatar,
		Token:     token,
		Theme:     user.DefaultTheme,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return nil, "", ErrEmailInUse
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "oauth user created",
		logger.UserID(u.ID), logger.Provider(s.google.ProviderID()), logger.Event("user.oauth_created"))
	return u, token, nil
}

// RedirectURL appends token, email, name, avatar and theme to the redirect
// base, in that order.
func (s *Service) RedirectURL(u *user.User, token string) string {
	params := [...][2]string{
		{"token", token},
		{"email", u.Email},
		{"name", u.Name},
		{"avatar", u.AvatarURL},
		{"theme", string(u.Theme)},
	}

	base := s.cfg.RedirectBase()
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}

	var b strings.Builder
	b.WriteString(base)
	for _, p := range params {
		b.WriteString(sep)
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
		sep = "&"
	}
	return b.String()
}
