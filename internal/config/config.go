package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	DataDir string
	DBPath  string
	FakeNow string

	// HTTP API
	Port               string
	JWTSecret          string
	JWTExpirationHours int
	RateLimitPerMinute int
	RateLimitBurst     int

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	Logging LoggingConfig
}

// LoggingConfig selects level, format and destination of the log output.
type LoggingConfig struct {
	Level      string
	Format     string // text or json
	Output     string // stdout, stderr or file
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// LoadDotEnv reads a .env file into the environment if one exists.
// Variables already set take precedence.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dataDir := os.Getenv("DIGIMESS_DATA_DIR")
	if dataDir == "" {
		return nil, fmt.Errorf("DIGIMESS_DATA_DIR environment variable not set")
	}

	jwtHours, err := intEnv("JWT_EXPIRATION_HOURS", 720)
	if err != nil {
		return nil, err
	}
	perMinute, err := intEnv("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}
	burst, err := intEnv("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}

	// Telegram Config (Optional for CLI, required for Bot)
	allowed, err := int64ListEnv("TELEGRAM_ALLOWED_USER_IDS")
	if err != nil {
		return nil, err
	}
	var adminID int64
	if s := os.Getenv("ADMIN_TELEGRAM_ID"); s != "" {
		adminID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be a number: %w", err)
		}
	}

	return &Config{
		DataDir:                dataDir,
		DBPath:                 stringEnv("DIGIMESS_DB_PATH", "data/digimess.db"),
		FakeNow:                os.Getenv("DIGIMESS_FAKE_NOW"),
		Port:                   stringEnv("PORT", "8080"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTExpirationHours:     jwtHours,
		RateLimitPerMinute:     perMinute,
		RateLimitBurst:         burst,
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
		Logging: LoggingConfig{
			Level:      stringEnv("LOG_LEVEL", "info"),
			Format:     stringEnv("LOG_FORMAT", "text"),
			Output:     stringEnv("LOG_OUTPUT", "stdout"),
			FilePath:   stringEnv("LOG_FILE", "logs/digimess.log"),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
	}, nil
}

// RequireServer checks the keys the HTTP server cannot start without.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return nil
}

// TelegramAllowed reports whether a Telegram user may talk to the bot.
// An empty allow-list admits everyone.
func (c *Config) TelegramAllowed(userID int64) bool {
	if len(c.TelegramAllowedUserIDs) == 0 {
		return true
	}
	for _, id := range c.TelegramAllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func int64ListEnv(key string) ([]int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s contains an invalid id %q", key, part)
		}
		out = append(out, id)
	}
	return out, nil
}
