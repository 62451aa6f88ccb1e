package account

import (
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/svc/auth"
)

// requireUser resolves the bearer access token into the current user.
func (m *Module) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := jwt.BearerTokenExtractor(r)
		if err != nil {
			m.fail(w, r, auth.ErrUnauthorized)
			return
		}

		u, err := m.svc.Authenticate(r.Context(), token)
		if err != nil {
			m.fail(w, r, err)
			return
		}

		ctx := auth.SetUserToContext(r.Context(), u)
		ctx = jwt.SetToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireBearer only extracts the bearer token; the handler validates it.
func (m *Module) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := jwt.BearerTokenExtractor(r)
		if err != nil {
			m.fail(w, r, auth.ErrInvalidRefreshToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(jwt.SetToken(r.Context(), token)))
	})
}
