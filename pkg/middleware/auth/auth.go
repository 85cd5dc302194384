// middleware/auth/auth.go
package auth

import (
	"crypto/rsa"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Role struct {
	Name string `json:"name"`
}

type AuthenticationSource struct {
	Provider string `json:"provider"`
}

type User struct {
	Username             string               `json:"username"`
	AuthenticationSource AuthenticationSource `json:"authenticationSource"`
	Role                 Role                 `json:"role"`
}

// Config is the assertion verification setup. Zero values disable checks.
type Config struct {
	PublicKey  *rsa.PublicKey
	CookieName string // default "assert"
	Issuer     string
	Audience   string
	Leeway     time.Duration
	AdminRole  string
	DevBypass  bool
}

type Middleware struct {
	key        *rsa.PublicKey
	cookieName string
	issuer     string
	audience   string
	leeway     time.Duration
	adminRole  string
	devBypass  bool
}

func New(cfg Config) *Middleware {
	if cfg.CookieName == "" {
		cfg.CookieName = "assert"
	}
	return &Middleware{
		key:        cfg.PublicKey,
		cookieName: cfg.CookieName,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		leeway:     cfg.Leeway,
		adminRole:  cfg.AdminRole,
		devBypass:  cfg.DevBypass,
	}
}

// ConfigFromEnv reads ASSERTION_* and AUTH_DEV_BYPASS. A missing or bad key
// file leaves PublicKey nil, so only dev bypass can authenticate.
func ConfigFromEnv(log *zap.Logger) Config {
	cfg := Config{
		CookieName: strings.TrimSpace(os.Getenv("ASSERTION_COOKIE_NAME")),
		Issuer:     strings.TrimSpace(os.Getenv("ASSERTION_ISSUER")),
		Audience:   strings.TrimSpace(os.Getenv("ASSERTION_AUDIENCE")),
		Leeway:     60 * time.Second,
		AdminRole:  os.Getenv("ADMIN_ROLE_NAME"),
		DevBypass:  os.Getenv("AUTH_DEV_BYPASS") == "true",
	}
	if v := strings.TrimSpace(os.Getenv("ASSERTION_LEEWAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Leeway = time.Duration(n) * time.Second
		}
	}
	if p := strings.TrimSpace(os.Getenv("ASSERTION_PUBLIC_KEY_FILE")); p != "" {
		k, err := LoadPublicKey(p)
		if err != nil {
			log.Warn("assertion key not loaded", zap.String("path", p), zap.Error(err))
		} else {
			cfg.PublicKey = k
		}
	}
	return cfg
}

// ProvideAuthentication is the fx constructor.
func ProvideAuthentication(log *zap.Logger) *Middleware {
	return New(ConfigFromEnv(log))
}

var Module = fx.Options(
	fx.Provide(ProvideAuthentication),
)
