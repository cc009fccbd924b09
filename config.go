package eventsync

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig is the env backed configuration for the service.
// Call LoadConfig to populate it; every field has a development default
// so a fresh checkout runs without a .env file.
type AppConfig struct {
	SigningKey            string
	ContextKey            string
	Issuer                string
	TokenExpiration       int
	ExtendedTokenDuration int
	VerificationWindow    time.Duration
	ResetWindow           time.Duration
	MinPasswordLength     int
	DeterministicIDs      bool
	RejectedRouteKey      string
	RejectedRouteDefault  string

	ServerAddr  string
	DatabaseDSN string

	SMTP SMTPConfig
}

var _ Config = &AppConfig{}

// LoadConfig reads the environment, after loading any .env file present
func LoadConfig() *AppConfig {
	_ = godotenv.Load()

	return &AppConfig{
		SigningKey:            envString("SIGNING_KEY", "eventsync-dev-secret"),
		ContextKey:            envString("AUTH_CONTEXT_KEY", "session"),
		Issuer:                envString("AUTH_ISSUER", "eventsync"),
		TokenExpiration:       envInt("TOKEN_EXPIRATION_HOURS", 24),
		ExtendedTokenDuration: envInt("EXTENDED_TOKEN_DURATION_HOURS", 24*7),
		VerificationWindow:    envDuration("VERIFICATION_WINDOW", DefaultVerificationWindow),
		ResetWindow:           envDuration("RESET_WINDOW", DefaultResetWindow),
		MinPasswordLength:     envInt("MIN_PASSWORD_LENGTH", 8),
		DeterministicIDs:      envBool("DETERMINISTIC_IDS", false),
		RejectedRouteKey:      envString("REJECTED_ROUTE_KEY", "jump_back"),
		RejectedRouteDefault:  envString("REJECTED_ROUTE_DEFAULT", "/login"),
		ServerAddr:            envString("SERVER_ADDR", ":8080"),
		DatabaseDSN:           envString("DATABASE_DSN", "file:eventsync.db?cache=shared&mode=rwc"),
		SMTP: SMTPConfig{
			Host:     envString("SMTP_HOST", "localhost"),
			Port:     envInt("SMTP_PORT", 587),
			Username: envString("SMTP_USERNAME", ""),
			Password: envString("SMTP_PASSWORD", ""),
			From:     envString("SMTP_FROM", "no-reply@eventsync.local"),
		},
	}
}

func (c *AppConfig) GetSigningKey() string           { return c.SigningKey }
func (c *AppConfig) GetContextKey() string           { return c.ContextKey }
func (c *AppConfig) GetIssuer() string               { return c.Issuer }
func (c *AppConfig) GetTokenExpiration() int         { return c.TokenExpiration }
func (c *AppConfig) GetExtendedTokenDuration() int   { return c.ExtendedTokenDuration }
func (c *AppConfig) GetVerificationWindow() time.Duration { return c.VerificationWindow }
func (c *AppConfig) GetResetWindow() time.Duration   { return c.ResetWindow }
func (c *AppConfig) GetMinPasswordLength() int       { return c.MinPasswordLength }
func (c *AppConfig) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c *AppConfig) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
