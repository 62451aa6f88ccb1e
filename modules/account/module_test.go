package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authkit/modules/account"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/file"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
	"github.com/dmitrymomot/authkit/svc/auth"
	"github.com/dmitrymomot/authkit/svc/user"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	return m.Called(ctx, params).Error(0)
}

type stubProvider struct {
	profile auth.ProviderProfile
}

func (p stubProvider) ProviderID() string { return auth.OAuthProviderGoogle }

func (p stubProvider) AuthURL(string) (string, error) {
	return "https://accounts.google.com/o/oauth2/auth?client_id=cid&prompt=consent", nil
}

func (p stubProvider) ResolveProfile(_ context.Context, code string) (auth.ProviderProfile, error) {
	switch code {
	case "valid-code":
		return p.profile, nil
	case "unverified-code":
		return auth.ProviderProfile{ProviderUserID: "g-2", Email: "a@b.com", Name: "Someone Else"}, nil
	}
	return auth.ProviderProfile{}, auth.ErrInvalidCode
}

type env struct {
	srv    *httptest.Server
	users  *user.MemoryStorage
	mailer *mockMailer

	publicDir string

	mu   sync.Mutex
	sent []email.SendEmailParams
}

func newEnv(t *testing.T, opts ...account.Option) *env {
	t.Helper()

	tokens, err := jwt.New("module-secret")
	require.NoError(t, err)
	files, err := file.NewLocalStorage(file.LocalConfig{PublicDir: t.TempDir()})
	require.NoError(t, err)

	e := &env{users: user.NewMemoryStorage(), mailer: &mockMailer{}, publicDir: files.Dir()}
	e.mailer.On("SendEmail", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.sent = append(e.sent, args.Get(1).(email.SendEmailParams))
	}).Return(nil).Maybe()

	svc := auth.NewService(auth.Config{
		BaseURL:      "http://localhost:8080",
		FrontendURL:  "http://localhost:3000",
		JWTSecret:    "module-secret",
		SupportEmail: "support@example.com",
	}, e.users, tokens, e.mailer, files,
		auth.WithHasher(auth.NewBcryptHasher(bcrypt.MinCost)),
		auth.WithRecorder(user.NewMemoryRecorder()),
		auth.WithGoogle(stubProvider{profile: auth.ProviderProfile{
			ProviderUserID: "g-1",
			Email:          "oauth@example.com",
			EmailVerified:  true,
			Name:           "OAuth Person",
			AvatarURL:      "https://example.com/p.png",
		}}),
	)

	e.srv = httptest.NewServer(account.New(svc, opts...).Routes())
	t.Cleanup(e.srv.Close)
	return e
}

func (e *env) sentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sent)
}

func (e *env) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *env) send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (e *env) signIn(t *testing.T, emailAddr, password string) (string, string) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/signin", "", map[string]string{"email": emailAddr, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string), body["refreshToken"].(string)
}

func TestSignUpScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	payload := map[string]string{"email": "a@b.com", "password": "pw123456", "name": "A"}

	resp, body := e.do(t, http.MethodPost, "/signup", "", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	userObj := body["user"].(map[string]any)
	assert.Equal(t, "a@b.com", userObj["email"])
	assert.Equal(t, "A", userObj["name"])
	assert.NotEmpty(t, body["message"])

	resp, body = e.do(t, http.MethodPost, "/signup", "", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email in use", body["message"])
}

func TestSignUpValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	resp, body := e.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "nope", "password": "pw123456", "name": "A"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "email")
}

func TestSignInScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "a@b.com", "password": "pw123456", "name": "A"})

	resp, body := e.do(t, http.MethodPost, "/signin", "", map[string]string{"email": "a@b.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refreshToken"])
	assert.Equal(t, "a@b.com", body["user"].(map[string]any)["email"])

	resp, body = e.do(t, http.MethodPost, "/signin", "", map[string]string{"email": "a@b.com", "password": "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Password is wrong", body["message"])

	resp, body = e.do(t, http.MethodPost, "/signin", "", map[string]string{"email": "ghost@b.com", "password": "pw123456"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Email not found", body["message"])
}

func TestSessionScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "a@b.com", "password": "pw123456", "name": "A"})
	access, refresh := e.signIn(t, "a@b.com", "pw123456")

	resp, body := e.do(t, http.MethodGet, "/current", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@b.com", body["email"])
	assert.Equal(t, "light", body["theme"])

	resp, _ = e.do(t, http.MethodGet, "/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/refresh", access, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/refresh", refresh, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	newAccess := body["accessToken"].(string)
	assert.NotEmpty(t, body["refreshToken"])

	resp, _ = e.do(t, http.MethodGet, "/current", access, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = e.do(t, http.MethodPatch, "/theme", newAccess, map[string]string{"theme": "dark"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dark", body["theme"])

	resp, _ = e.do(t, http.MethodPost, "/logout", newAccess, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/current", newAccess, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	resp, body := e.do(t, http.MethodPost, "/forgot-password", "", map[string]string{"email": "ghost@b.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body["message"])
	assert.Zero(t, e.sentCount())

	e.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "a@b.com", "password": "pw123456", "name": "A"})
	resp, _ = e.do(t, http.MethodPost, "/forgot-password", "", map[string]string{"email": "a@b.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, e.sentCount())

	stored, err := e.users.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	reset := map[string]string{"resetToken": stored.ResetToken, "newPassword": "brand-new"}

	resp, _ = e.do(t, http.MethodPost, "/reset-password", "", reset)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/reset-password", "", reset)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid or expired token", body["message"])

	e.signIn(t, "a@b.com", "brand-new")
}

func TestEditProfileScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "a@b.com", "password": "pw123456", "name": "A"})
	access, _ := e.signIn(t, "a@b.com", "pw123456")
	stored, err := e.users.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Ann"))
	part, err := mw.CreateFormFile("avatar", "face.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPatch, e.srv.URL+"/profile", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+access)

	resp, body := e.send(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	userObj := body["user"].(map[string]any)
	assert.Equal(t, "Ann", userObj["name"])
	assert.Equal(t, "a@b.com", userObj["email"])
	assert.Equal(t, "profileAvatar/"+stored.ID+"_face.png", userObj["avatar"])

	resp, body = e.do(t, http.MethodPut, "/profile", access, map[string]string{"password": "changed-pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ann", body["user"].(map[string]any)["name"])
	e.signIn(t, "a@b.com", "changed-pw")
}

func TestAvatarUploadNeverStoresMarkup(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "a@b.com", "password": "pw123456", "name": "A"})
	access, _ := e.signIn(t, "a@b.com", "pw123456")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "evil.html")
	require.NoError(t, err)
	_, err = part.Write(append(append([]byte{}, pngHeader...), "<script>alert(document.cookie)</script>"...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPatch, e.srv.URL+"/profile", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+access)

	resp, body := e.send(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avatar, _ := body["user"].(map[string]any)["avatar"].(string)
	require.True(t, strings.HasSuffix(avatar, ".png"), avatar)

	rr := httptest.NewRecorder()
	file.PublicHandler(e.publicDir).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/"+avatar, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestHelpScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	resp, body := e.do(t, http.MethodPost, "/help", "", map[string]string{"email": "a@b.com", "comment": "please help"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, 1, e.sentCount())
	assert.Equal(t, "support@example.com", e.sent[0].SendTo)
}

func TestGoogleScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodGet, "/google", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "accounts.google.com")

	resp, _ = e.do(t, http.MethodGet, "/google-redirect?code=valid-code", "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(location, "http://localhost:3000?token="))

	last := -1
	for _, key := range []string{"token=", "email=", "name=", "avatar=", "theme="} {
		idx := strings.Index(location, key)
		require.GreaterOrEqual(t, idx, 0, key)
		assert.Greater(t, idx, last, key)
		last = idx
	}

	created, err := e.users.GetUserByEmail(context.Background(), "oauth@example.com")
	require.NoError(t, err)
	assert.Equal(t, "OAuth Person", created.Name)

	resp, body := e.do(t, http.MethodGet, "/google-redirect", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing authorization code", body["message"])

	resp, _ = e.do(t, http.MethodGet, "/google-redirect?code=bad", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGoogleUnverifiedEmailDoesNotLink(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "a@b.com", "password": "pw123456", "name": "A"})
	before, err := e.users.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	resp, body := e.do(t, http.MethodGet, "/google-redirect?code=unverified-code", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Google email is not verified", body["message"])
	assert.Empty(t, resp.Header.Get("Location"))

	after, err := e.users.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, before.Token, after.Token)
	assert.Equal(t, "A", after.Name)
}

func TestRateLimitScenario(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(store.Close)
	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	e := newEnv(t, account.WithRateLimit(limiter, nil))
	creds := map[string]string{"email": "nobody@example.com", "password": "secret1"}

	for range 2 {
		resp, _ := e.do(t, http.MethodPost, "/signin", "", creds)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := e.do(t, http.MethodPost, "/signin", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests, try again later", body["message"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, _ = e.do(t, http.MethodGet, "/google", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode, "oauth entry point is not throttled")
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(store.Close)
	cfg := ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Hour}
	limiter, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)

	e := newEnv(t, account.WithRateLimit(limiter, ratelimiter.KeyByIP(cfg)))
	payload, err := json.Marshal(map[string]string{"email": "nobody@example.com", "password": "secret1"})
	require.NoError(t, err)

	var codes []int
	for _, fwd := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/signin", bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fwd)
		req.Header.Set("X-Real-IP", fwd)
		resp, _ := e.send(t, req)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}
