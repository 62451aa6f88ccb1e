package auth

import "context"

// OAuthProviderGoogle identifies the Google provider in logs.
const OAuthProviderGoogle = "google"

// ProviderAdapter hides provider protocol details from the account service.
type ProviderAdapter interface {
	// ProviderID returns a stable provider identifier used for logging.
	ProviderID() string

	// AuthURL builds the provider consent URL.
	AuthURL(state string) (string, error)

	// ResolveProfile exchanges the authorization code for an access token
	// and fetches the user profile with it.
	//
	// Invalid codes yield ErrInvalidCode; a profile without email yields ErrNoPrimaryEmail.
	ResolveProfile(ctx context.Context, code string) (ProviderProfile, error)
}

// ProviderProfile is the normalized user profile returned by a provider.
type ProviderProfile struct {
	// ProviderUserID is the provider's stable user identifier.
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}
