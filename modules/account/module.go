// Package account exposes the account service over HTTP under /api/users.
package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authkit/handler"
	"github.com/dmitrymomot/authkit/pkg/binder"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
	"github.com/dmitrymomot/authkit/svc/auth"
	"github.com/dmitrymomot/authkit/svc/user"
)

// AuthService is the account service consumed by the HTTP layer.
type AuthService interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*user.User, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	LogOut(ctx context.Context, userID string) error
	Authenticate(ctx context.Context, accessToken string) (*user.User, error)
	EditProfile(ctx context.Context, userID string, in auth.ProfileInput) (*user.User, error)
	ChangeTheme(ctx context.Context, userID, theme string) (user.Theme, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, newPassword string) error
	Help(ctx context.Context, from, comment string) error
	GoogleAuthURL() (string, error)
	GoogleLogin(ctx context.Context, code string) (*user.User, string, error)
	RedirectURL(u *user.User, token string) string
}

// DefaultMaxUploadSize bounds profile update bodies, avatar included.
const DefaultMaxUploadSize = 6 << 20

// Module is the HTTP transport of the account service.
type Module struct {
	svc           AuthService
	log           *slog.Logger
	maxUploadSize int64
	limiter       *ratelimiter.Bucket
	limitKey      ratelimiter.KeyFunc
	errorHandler  handler.ErrorHandler[handler.Context]
}

// Option configures Module.
type Option func(*Module)

func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMaxUploadSize overrides DefaultMaxUploadSize.
func WithMaxUploadSize(n int64) Option {
	return func(m *Module) {
		if n > 0 {
			m.maxUploadSize = n
		}
	}
}

// WithRateLimit throttles the credential endpoints per key. A nil key
// falls back to ratelimiter.ByIP.
func WithRateLimit(b *ratelimiter.Bucket, key ratelimiter.KeyFunc) Option {
	return func(m *Module) {
		m.limiter = b
		m.limitKey = key
		if key == nil {
			m.limitKey = ratelimiter.ByIP
		}
	}
}

func New(svc AuthService, opts ...Option) *Module {
	m := &Module{
		svc:           svc,
		log:           logger.Discard(),
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("account"))
	m.errorHandler = handler.NewErrorHandler[handler.Context](m.log, mapError)
	return m
}

// Routes returns the router to be mounted at /api/users.
func (m *Module) Routes() http.Handler {
	r := chi.NewRouter()

	body := []handler.Bind{binder.JSON(), binder.Form()}

	r.Group(func(r chi.Router) {
		if m.limiter != nil {
			r.Use(ratelimiter.Middleware(m.limiter, m.limitKey, m.rateLimited))
		}

		r.Post("/signup", wrap(m, m.signUp, body...))
		r.Post("/signin", wrap(m, m.signIn, body...))
		r.Post("/help", wrap(m, m.help, body...))
		r.Post("/forgot-password", wrap(m, m.forgotPassword, body...))
		r.Post("/reset-password", wrap(m, m.resetPassword, body...))
	})

	r.Get("/google", wrap(m, m.googleAuth))
	r.Get("/google-redirect", wrap(m, m.googleRedirect, binder.Query()))

	r.With(m.requireBearer).Post("/refresh", wrap(m, m.refresh))

	r.Group(func(r chi.Router) {
		r.Use(m.requireUser)

		r.Get("/current", wrap(m, m.current))
		r.Post("/logout", wrap(m, m.logOut))
		r.Delete("/logout", wrap(m, m.logOut))
		r.Patch("/theme", wrap(m, m.changeTheme, body...))

		profile := wrap(m, m.editProfile, body...)
		r.With(middleware.RequestSize(m.maxUploadSize)).Patch("/profile", profile)
		r.With(middleware.RequestSize(m.maxUploadSize)).Put("/profile", profile)
	})

	return r
}

func wrap[R any](m *Module, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](m.errorHandler),
	)
}

// fail reports err through the JSON error handler outside of a wrapped handler.
func (m *Module) fail(w http.ResponseWriter, r *http.Request, err error) {
	m.errorHandler(handler.NewContext(w, r), err)
}

func (m *Module) rateLimited(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result, err error) {
	if err != nil {
		m.fail(w, r, err)
		return
	}
	m.fail(w, r, errTooManyRequests)
}
