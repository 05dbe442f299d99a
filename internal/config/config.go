// Package config loads the process configuration from environment variables.
//
// The whole configuration surface is one immutable Config value built at
// startup in cmd/server and handed to each component through its
// constructor. Nothing in this module reads the environment after Load.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Minimum lengths for secret material. ACCESS_TOKEN_KEY feeds HKDF, so any
// string works, but short keys are rejected to catch placeholder values.
const (
	minAccessTokenKeyLen = 32
	minSessionSecretLen  = 16
)

// Config holds every recognized option.
type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	// GitHub OAuth App credentials.
	GitHubClientID     string   `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string   `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURI  string   `env:"GITHUB_REDIRECT_URI"`
	GitHubScopes       []string `env:"GITHUB_SCOPES" envSeparator:"," envDefault:"repo,read:user,user:email"`
	GitHubAPIURL       string   `env:"GITHUB_API_URL" envDefault:"https://api.github.com/"`
	// GitHubOAuthURL is the base of /authorize and /access_token; override for GitHub Enterprise.
	GitHubOAuthURL string `env:"GITHUB_OAUTH_URL" envDefault:"https://github.com/login/oauth"`

	// AccessTokenKey is the symmetric key material for stored GitHub tokens.
	AccessTokenKey string `env:"ACCESS_TOKEN_KEY"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"744h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"DB_PATH" envDefault:"data/repoedit.db"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.GitHubScopes = trimCSV(cfg.GitHubScopes)
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.GitHubClientID == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID is required"))
	}
	if c.GitHubClientSecret == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_SECRET is required"))
	}
	if c.GitHubRedirectURI == "" {
		errs = append(errs, errors.New("GITHUB_REDIRECT_URI is required"))
	}
	if len(c.AccessTokenKey) < minAccessTokenKeyLen {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_KEY must be at least %d characters", minAccessTokenKeyLen))
	}
	if len(c.SessionSecret) < minSessionSecretLen {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen))
	}
	if !isHTTPURL(c.GitHubAPIURL) {
		errs = append(errs, fmt.Errorf("GITHUB_API_URL %q must be an http(s) URL", c.GitHubAPIURL))
	}
	if !isHTTPURL(c.GitHubOAuthURL) {
		errs = append(errs, fmt.Errorf("GITHUB_OAUTH_URL %q must be an http(s) URL", c.GitHubOAuthURL))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	switch c.StoreDriver {
	case StoreSQLite, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of %q, %q", c.StoreDriver, StoreSQLite, StoreRedis))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
