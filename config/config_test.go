package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "log", cfg.MailProvider)
	assert.Equal(t, []string{"gold", "silver"}, cfg.Metals)
	assert.Equal(t, 100, cfg.LeaderboardLimit)
	assert.Equal(t, 10, cfg.LeaderboardDisplay)
	assert.Equal(t, 10*time.Minute, cfg.RetryInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetryWindow)
	assert.Equal(t, 5*time.Minute, cfg.RetryGrace)
	assert.Empty(t, cfg.InternalRecipients)
	assert.False(t, cfg.R2Enabled())
}

func TestLoadNormalizesLists(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("INTERNAL_RECIPIENTS", "ops@example.com, ,desk@example.com")
	t.Setenv("METALS", "Gold, Silver ,Platinum")
	t.Setenv("BASE_URL", "https://genesis.example.com/")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"ops@example.com", "desk@example.com"}, cfg.InternalRecipients)
	assert.Equal(t, []string{"gold", "silver", "platinum"}, cfg.Metals)
	assert.Equal(t, "https://genesis.example.com", cfg.BaseURL)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidateRejectsBadCombinations(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":        {"DB_DRIVER": "mysql"},
		"sendgrid without key":  {"MAIL_PROVIDER": "sendgrid"},
		"unknown mail provider": {"MAIL_PROVIDER": "smtp"},
		"display above limit":   {"LEADERBOARD_LIMIT": "5", "LEADERBOARD_DISPLAY": "10"},
		"grace beyond window":   {"RETRY_WINDOW": "1h", "RETRY_GRACE": "2h"},
		"negative grace":        {"RETRY_GRACE": "-1m"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "file::memory:")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestR2Enabled(t *testing.T) {
	cfg := Config{R2AccountID: "acct", R2AccessKeyID: "id", R2AccessKeySecret: "secret"}
	assert.False(t, cfg.R2Enabled())
	cfg.R2Bucket = "receipts"
	assert.True(t, cfg.R2Enabled())
}
