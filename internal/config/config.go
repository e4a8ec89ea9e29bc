// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrSecretKeyMissing is returned by Load when PANDABOT_SECRET_KEY is unset or empty.
var ErrSecretKeyMissing = errors.New("PANDABOT_SECRET_KEY is required")

// secretKeySize is the decoded length required for PANDABOT_SECRET_KEY.
const secretKeySize = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BotToken    string
	BotUsername string
	SecretKey   []byte
	APIBaseURL  string
	HTTPTimeout time.Duration
	ListenAddr  string
	DBPath      string
}

// String omits the bot token and secret key so a Config can be logged safely.
func (c *Config) String() string {
	return fmt.Sprintf("Config{BotUsername:%s APIBaseURL:%s HTTPTimeout:%s ListenAddr:%s DBPath:%s}",
		c.BotUsername, c.APIBaseURL, c.HTTPTimeout, c.ListenAddr, c.DBPath)
}

// Load reads configuration from environment variables and returns a validated Config.
// Required: PANDABOT_BOT_TOKEN, PANDABOT_SECRET_KEY (base64 of 32 bytes; standard or
// URL alphabet, so Fernet keys are accepted).
// Optional variables with defaults: PANDABOT_API_BASE_URL (https://api.bitpanda.com/v1),
// PANDABOT_HTTP_TIMEOUT (15s), PANDABOT_LISTEN_ADDR (127.0.0.1:8080),
// PANDABOT_DB_PATH (pandabot.db), PANDABOT_BOT_USERNAME (bitpanda_portfolio_bot).
func Load() (*Config, error) {
	token := os.Getenv("PANDABOT_BOT_TOKEN")
	if token == "" {
		return nil, errors.New("PANDABOT_BOT_TOKEN is required")
	}

	secretKey, err := parseSecretKey(os.Getenv("PANDABOT_SECRET_KEY"))
	if err != nil {
		return nil, err
	}

	httpTimeout := 15 * time.Second
	if v, ok := os.LookupEnv("PANDABOT_HTTP_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PANDABOT_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("PANDABOT_HTTP_TIMEOUT must be positive, got %s", parsed)
		}
		httpTimeout = parsed
	}

	apiBaseURL := "https://api.bitpanda.com/v1"
	if v, ok := os.LookupEnv("PANDABOT_API_BASE_URL"); ok && v != "" {
		apiBaseURL = strings.TrimRight(v, "/")
	}

	listenAddr := "127.0.0.1:8080"
	if v := strings.TrimSpace(os.Getenv("PANDABOT_LISTEN_ADDR")); v != "" {
		listenAddr = v
	}

	dbPath := "pandabot.db"
	if v := strings.TrimSpace(os.Getenv("PANDABOT_DB_PATH")); v != "" {
		dbPath = v
	}

	botUsername := "bitpanda_portfolio_bot"
	if v, ok := os.LookupEnv("PANDABOT_BOT_USERNAME"); ok && v != "" {
		botUsername = strings.TrimPrefix(v, "@")
	}

	return &Config{
		BotToken:    token,
		BotUsername: botUsername,
		SecretKey:   secretKey,
		APIBaseURL:  apiBaseURL,
		HTTPTimeout: httpTimeout,
		ListenAddr:  listenAddr,
		DBPath:      dbPath,
	}, nil
}

// parseSecretKey decodes a base64 key in any of the common alphabets and
// checks its length. The raw value never appears in returned errors.
func parseSecretKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSecretKeyMissing
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		key, err := enc.DecodeString(raw)
		if err != nil {
			continue
		}
		if len(key) != secretKeySize {
			return nil, fmt.Errorf("PANDABOT_SECRET_KEY must decode to %d bytes, got %d", secretKeySize, len(key))
		}
		return key, nil
	}

	return nil, errors.New("PANDABOT_SECRET_KEY is not valid base64")
}
