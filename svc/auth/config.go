package auth

import (
	"strings"
	"time"
)

// Config holds the account service settings.
type Config struct {
	BaseURL         string        `env:"BASE_URL,required"`
	FrontendURL     string        `env:"FRONTEND_URL"`
	JWTSecret       string        `env:"JWT_SECRET,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"12h"`
	OAuthTokenTTL   time.Duration `env:"OAUTH_TOKEN_TTL" envDefault:"23h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	ResetCodeTTL    time.Duration `env:"RESET_CODE_TTL" envDefault:"1h"`
	ThemeStrict     bool          `env:"THEME_STRICT" envDefault:"false"`
	AvatarDir       string        `env:"AVATAR_DIR" envDefault:"profileAvatar"`
	UploadTmpDir    string        `env:"UPLOAD_TMP_DIR" envDefault:"tmp"`
	MaxAvatarSize   int64         `env:"MAX_AVATAR_SIZE" envDefault:"5242880"`
	SupportEmail    string        `env:"SUPPORT_EMAIL" envDefault:"support@authkit.local"`
}

// RedirectBase is where the browser lands after OAuth login.
func (c Config) RedirectBase() string {
	if c.FrontendURL != "" {
		return c.FrontendURL
	}
	return c.BaseURL
}

func (c Config) withDefaults() Config {
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = 12 * time.Hour
	}
	if c.OAuthTokenTTL <= 0 {
		c.OAuthTokenTTL = 23 * time.Hour
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.ResetCodeTTL <= 0 {
		c.ResetCodeTTL = time.Hour
	}
	if c.AvatarDir == "" {
		c.AvatarDir = "profileAvatar"
	}
	if c.UploadTmpDir == "" {
		c.UploadTmpDir = "tmp"
	}
	if c.MaxAvatarSize <= 0 {
		c.MaxAvatarSize = 5 << 20
	}
	return c
}

// GoogleConfig holds Google OAuth client settings.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	RedirectPath string   `env:"GOOGLE_REDIRECT_PATH" envDefault:"/api/users/google-redirect"`
	Scopes       []string `env:"GOOGLE_SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/userinfo.profile,https://www.googleapis.com/auth/userinfo.email"`
}

// Enabled reports whether client credentials are configured.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// RedirectURL joins the public base URL with the callback path.
func (c GoogleConfig) RedirectURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(c.RedirectPath, "/")
}
