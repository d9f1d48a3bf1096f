package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/garage/pkg/apiclient"
	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/spf13/viper"
)

// ErrMissingSecret is returned when no JWT signing secret is configured.
var ErrMissingSecret = errors.New("app: JWT_SECRET is required")

type Config struct {
	APIBaseURL        string // Base URL of the garage REST API (default: http://localhost:8080)
	ChatbotAPIBaseURL string // Base URL of the chatbot API (default: http://localhost:8000)
	JWTSecret         string // Required: shared HS256 secret the API signs access tokens with
	Issuer            string // Optional: expected iss claim
	RoutesFile        string // Optional: YAML protected-path table, built-in table when empty

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 3000)

	RefreshTimeout      time.Duration // Bound on one refresh exchange (default: 15s)
	AccessTokenTTL      time.Duration // Cookie lifetime of the access token (default: 1h)
	RefreshTokenTTL     time.Duration // Cookie lifetime of the refresh token and caches (default: 7d)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// NewViper returns a viper instance with the portal defaults that reads
// upper-cased environment variables (api_base_url <- API_BASE_URL).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("chatbot_api_base_url", "http://localhost:8000")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("port", 3000)
	v.SetDefault("refresh_timeout", apiclient.DefaultRefreshTimeout)
	v.SetDefault("access_token_ttl", jwtx.DefaultAccessTokenTTL)
	v.SetDefault("refresh_token_ttl", jwtx.DefaultRefreshTokenTTL)
	v.SetDefault("shutdown_grace_period", 10*time.Second)
	return v
}

// LoadConfig reads configFile (if any) into v and builds a Config from the
// merged defaults, file and environment.
func LoadConfig(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Config{
		APIBaseURL:          v.GetString("api_base_url"),
		ChatbotAPIBaseURL:   v.GetString("chatbot_api_base_url"),
		JWTSecret:           v.GetString("jwt_secret"),
		Issuer:              v.GetString("jwt_issuer"),
		RoutesFile:          v.GetString("routes_file"),
		Env:                 v.GetString("env"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
		Port:                v.GetInt("port"),
		RefreshTimeout:      v.GetDuration("refresh_timeout"),
		AccessTokenTTL:      v.GetDuration("access_token_ttl"),
		RefreshTokenTTL:     v.GetDuration("refresh_token_ttl"),
		ShutdownGracePeriod: v.GetDuration("shutdown_grace_period"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the portal cannot serve with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.APIBaseURL == "" {
		return errors.New("app: API_BASE_URL is required")
	}
	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("app: refresh timeout must be positive, got %s", c.RefreshTimeout)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("app: invalid port %d", c.Port)
	}
	return nil
}

// SecureCookies reports whether cookies must be HTTPS-only.
func (c Config) SecureCookies() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}
