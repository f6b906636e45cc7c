// config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Config is the runtime configuration for the intake service, read from the
// environment (optionally seeded from a .env file).
type Config struct {
	Port string `envconfig:"PORT" default:"3000"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	AdminToken string `envconfig:"ADMIN_TOKEN"`

	MailProvider       string   `envconfig:"MAIL_PROVIDER" default:"log"`
	SendGridAPIKey     string   `envconfig:"SENDGRID_API_KEY"`
	SendGridBaseURL    string   `envconfig:"SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
	FromEmail          string   `envconfig:"FROM_EMAIL" default:"genesis@unykorn.org"`
	FromName           string   `envconfig:"FROM_NAME" default:"K IMPERIA Genesis"`
	InternalRecipients []string `envconfig:"INTERNAL_RECIPIENTS"`
	BaseURL            string   `envconfig:"BASE_URL" default:"http://localhost:3000"`

	Metals             []string `envconfig:"METALS" default:"gold,silver"`
	LeaderboardLimit   int      `envconfig:"LEADERBOARD_LIMIT" default:"100"`
	LeaderboardDisplay int      `envconfig:"LEADERBOARD_DISPLAY" default:"10"`

	PublicDir string `envconfig:"PUBLIC_DIR" default:"./public"`

	R2AccountID       string `envconfig:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `envconfig:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `envconfig:"R2_ACCESS_KEY_SECRET"`
	R2Bucket          string `envconfig:"R2_BUCKET_NAME"`

	RetryInterval time.Duration `envconfig:"RETRY_INTERVAL" default:"10m"`
	RetryWindow   time.Duration `envconfig:"RETRY_WINDOW" default:"24h"`
	RetryGrace    time.Duration `envconfig:"RETRY_GRACE" default:"5m"`
	DigestCron    string        `envconfig:"DIGEST_CRON" default:"0 8 * * *"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// Load reads envFile (if it exists) into the process environment and then
// processes the environment into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			zap.L().Warn("⚠️  No .env file found, reading environment variables directly",
				zap.String("file", envFile))
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.MailProvider = strings.ToLower(strings.TrimSpace(c.MailProvider))
	c.InternalRecipients = compact(c.InternalRecipients)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")

	metals := compact(c.Metals)
	for i, m := range metals {
		metals[i] = strings.ToLower(m)
	}
	c.Metals = metals
}

// Validate checks the combinations envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	switch c.MailProvider {
	case "log":
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid")
		}
	default:
		return fmt.Errorf("unsupported MAIL_PROVIDER %q (want sendgrid or log)", c.MailProvider)
	}
	if len(c.Metals) == 0 {
		return fmt.Errorf("METALS must name at least one metal")
	}
	if c.LeaderboardLimit <= 0 {
		return fmt.Errorf("LEADERBOARD_LIMIT must be positive, got %d", c.LeaderboardLimit)
	}
	if c.LeaderboardDisplay <= 0 || c.LeaderboardDisplay > c.LeaderboardLimit {
		return fmt.Errorf("LEADERBOARD_DISPLAY must be between 1 and %d, got %d",
			c.LeaderboardLimit, c.LeaderboardDisplay)
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("RETRY_INTERVAL must be positive, got %v", c.RetryInterval)
	}
	if c.RetryGrace < 0 || c.RetryGrace >= c.RetryWindow {
		return fmt.Errorf("RETRY_GRACE must be between 0 and RETRY_WINDOW (%v), got %v", c.RetryWindow, c.RetryGrace)
	}
	return nil
}

// R2Enabled reports whether every R2 setting needed for receipt archiving is present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
