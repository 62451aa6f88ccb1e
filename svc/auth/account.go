package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrymomot/authkit/pkg/gravatar"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
	"github.com/dmitrymomot/authkit/pkg/validator"
	"github.com/dmitrymomot/authkit/svc/user"
)

// Password length limits. bcrypt ignores input beyond 72 bytes.
const (
	MinPasswordLen   = 6
	MaxPasswordBytes = 72
)

// SignUpInput is the signup payload.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// Session is returned by SignIn.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *user.User
}

// TokenPair is returned by RefreshToken.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func passwordRules(field, password string) []validator.Rule {
	return []validator.Rule{
		validator.MinLenString(field, password, MinPasswordLen),
		validator.MaxBytesString(field, password, MaxPasswordBytes),
	}
}

// SignUp creates an account and an access token for it.
// The returned user carries the token in its Token field.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*user.User, error) {
	in.Email = sanitizer.NormalizeEmail(in.Email)
	in.Name = sanitizer.Apply(in.Name, sanitizer.Trim, sanitizer.NormalizeWhitespace)

	rules := append([]validator.Rule{
		validator.ValidEmail("email", in.Email),
		validator.RequiredString("name", in.Name),
		validator.MaxLenString("name", in.Name, 100),
	}, passwordRules("password", in.Password)...)
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	token, err := s.tokens.Issue(id, jwt.TypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &user.User{
		ID:        id,
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		AvatarURL: gravatar.URL(in.Email),
		Token:     token,
		Theme:     user.DefaultTheme,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.RecordCreated(ctx, u); err != nil {
			s.log.ErrorContext(ctx, "failed to record created user",
				logger.UserID(u.ID),
				logger.Error(err),
			)
			return nil, err
		}
	}

	s.log.InfoContext(ctx, "user signed up", logger.UserID(u.ID), logger.Event("user.signed_up"))
	return u, nil
}

// SignIn checks credentials and issues a fresh access and refresh token pair.
func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (*Session, error) {
	emailAddr = sanitizer.NormalizeEmail(emailAddr)
	if err := validator.Apply(
		validator.ValidEmail("email", emailAddr),
		validator.RequiredString("password", password),
	); err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Compare(u.Password, password); err != nil {
		s.log.WarnContext(ctx, "sign in rejected", logger.UserID(u.ID), logger.Event("user.signin_failed"))
		return nil, ErrWrongPassword
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetTokens(ctx, u.ID, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	u.Token, u.RefreshToken = pair.AccessToken, pair.RefreshToken

	s.log.InfoContext(ctx, "user signed in", logger.UserID(u.ID), logger.Event("user.signed_in"))
	return &Session{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: u}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The old refresh
// token stops working once the swap is stored.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ParseType(refreshToken, jwt.TypeRefresh)
	if err != nil {
		return nil, errors.Join(ErrInvalidRefreshToken, err)
	}

	pair, err := s.issuePair(claims.Subject)
	if err != nil {
		return nil, err
	}
	if err := s.users.RotateTokens(ctx, claims.Subject, refreshToken, pair.AccessToken, pair.RefreshToken); err != nil {
		if errors.Is(err, user.ErrTokenMismatch) || errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("rotate tokens: %w", err)
	}
	return pair, nil
}

// LogOut clears both stored tokens. Repeated calls succeed.
func (s *Service) LogOut(ctx context.Context, userID string) error {
	if err := s.users.SetTokens(ctx, userID, "", ""); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("clear tokens: %w", err)
	}
	s.log.InfoContext(ctx, "user logged out", logger.UserID(userID), logger.Event("user.logged_out"))
	return nil
}

// Authenticate resolves the user owning accessToken. The token must be an
// access token and must still be the one stored on the account.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := s.tokens.ParseType(accessToken, jwt.TypeAccess)
	if err != nil {
		return nil, errors.Join(ErrUnauthorized, err)
	}

	u, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.Token == "" || subtle.ConstantTimeCompare([]byte(u.Token), []byte(accessToken)) != 1 {
		s.log.DebugContext(ctx, "stale access token", logger.UserID(u.ID))
		return nil, ErrUnauthorized
	}
	return u, nil
}

// Current returns the account by id.
func (s *Service) Current(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *Service) issuePair(userID string) (*TokenPair, error) {
	access, err := s.tokens.Issue(userID, jwt.TypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(userID, jwt.TypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
