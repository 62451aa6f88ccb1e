package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is the profile endpoint queried after token exchange.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleAdapter struct {
	conf        *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// GoogleOption configures the Google adapter.
type GoogleOption func(*googleAdapter)

// WithGoogleEndpoint overrides the authorization and token endpoints.
func WithGoogleEndpoint(ep oauth2.Endpoint) GoogleOption {
	return func(a *googleAdapter) { a.conf.Endpoint = ep }
}

// WithGoogleUserInfoURL overrides the userinfo endpoint.
func WithGoogleUserInfoURL(u string) GoogleOption {
	return func(a *googleAdapter) {
		if u != "" {
			a.userInfoURL = u
		}
	}
}

// WithGoogleHTTPClient sets the client used for token exchange and userinfo calls.
func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(a *googleAdapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// NewGoogleAdapter creates a Google OAuth provider adapter.
// The callback URL is derived from baseURL and cfg.RedirectPath.
func NewGoogleAdapter(cfg GoogleConfig, baseURL string, opts ...GoogleOption) ProviderAdapter {
	a := &googleAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL(baseURL),
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *googleAdapter) ProviderID() string {
	return OAuthProviderGoogle
}

// AuthURL requests offline access and forces the consent prompt.
func (a *googleAdapter) AuthURL(state string) (string, error) {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (a *googleAdapter) ResolveProfile(ctx context.Context, code string) (ProviderProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return ProviderProfile{}, fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}

	u, err := a.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return ProviderProfile{}, fmt.Errorf("fetch google user: %w", err)
	}
	if u.Email == "" {
		return ProviderProfile{}, ErrNoPrimaryEmail
	}

	return ProviderProfile{
		ProviderUserID: u.ID,
		Email:          u.Email,
		EmailVerified:  u.VerifiedEmail,
		Name:           u.Name,
		AvatarURL:      u.Picture,
	}, nil
}

func (a *googleAdapter) fetchUser(ctx context.Context, accessToken string) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned status %d", resp.StatusCode)
	}

	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

var _ ProviderAdapter = (*googleAdapter)(nil)
