package auth_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/file"
	"github.com/dmitrymomot/authkit/pkg/jwt"
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

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) ProviderID() string { return auth.OAuthProviderGoogle }

func (m *mockProvider) AuthURL(state string) (string, error) {
	args := m.Called(state)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) ResolveProfile(ctx context.Context, code string) (auth.ProviderProfile, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(auth.ProviderProfile), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordCreated(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixture struct {
	svc      *auth.Service
	users    *user.MemoryStorage
	mailer   *mockMailer
	recorder *user.MemoryRecorder
	google   *mockProvider
	files    *file.LocalStorage
	tokens   *jwt.Service
	clock    *clock
	dir      string
}

func testConfig() auth.Config {
	return auth.Config{
		BaseURL:      "http://localhost:8080",
		FrontendURL:  "http://localhost:3000/",
		JWTSecret:    "test-secret",
		SupportEmail: "support@example.com",
	}
}

func newFixture(t *testing.T, cfg auth.Config, opts ...auth.Option) *fixture {
	t.Helper()

	tokens, err := jwt.New(cfg.JWTSecret)
	require.NoError(t, err)

	dir := t.TempDir()
	files, err := file.NewLocalStorage(file.LocalConfig{PublicDir: dir})
	require.NoError(t, err)

	f := &fixture{
		users:    user.NewMemoryStorage(),
		mailer:   &mockMailer{},
		recorder: user.NewMemoryRecorder(),
		google:   &mockProvider{},
		files:    files,
		tokens:   tokens,
		clock:    &clock{t: time.Now()},
		dir:      dir,
	}

	base := []auth.Option{
		auth.WithRecorder(f.recorder),
		auth.WithGoogle(f.google),
		auth.WithHasher(auth.NewBcryptHasher(bcrypt.MinCost)),
		auth.WithClock(f.clock.Now),
	}
	f.svc = auth.NewService(cfg, f.users, tokens, f.mailer, files, append(base, opts...)...)
	return f
}

func (f *fixture) signUp(t *testing.T, emailAddr, password string) *user.User {
	t.Helper()
	u, err := f.svc.SignUp(context.Background(), auth.SignUpInput{Email: emailAddr, Password: password, Name: "Test User"})
	require.NoError(t, err)
	return u
}

func createFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := &http.Request{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{writer.FormDataContentType()}},
		Body:   io.NopCloser(body),
	}
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File["avatar"]
	require.Len(t, files, 1)
	return files[0]
}

func ptr[T any](v T) *T { return &v }
