// Package auth implements account operations: password signup and signin,
// session tokens, profile management, password reset, help requests and
// Google login.
package auth

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/file"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/svc/user"
)

// Service orchestrates the user store and the stateless collaborators.
type Service struct {
	cfg      Config
	users    user.Storage
	tokens   *jwt.Service
	mailer   email.EmailSender
	files    file.Storage
	recorder user.Recorder
	google   ProviderAdapter
	hasher   Hasher
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures Service.
type Option func(*Service)

// WithRecorder sets where newly signed-up accounts are mirrored.
func WithRecorder(r user.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithGoogle enables Google login.
func WithGoogle(p ProviderAdapter) Option {
	return func(s *Service) { s.google = p }
}

func WithHasher(h Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for reset code expiration.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides user id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService wires the account service.
func NewService(
	cfg Config,
	users user.Storage,
	tokens *jwt.Service,
	mailer email.EmailSender,
	files file.Storage,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:    cfg.withDefaults(),
		users:  users,
		tokens: tokens,
		mailer: mailer,
		files:  files,
		hasher: NewBcryptHasher(0),
		log:    logger.Discard(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("auth"))
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}
