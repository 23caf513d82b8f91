package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":10000"
database:
  driver: sqlite
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "biashara-bot", cfg.App.Name)
	assert.Equal(t, ":10000", cfg.Server.Address)
	assert.Equal(t, "sales.db", cfg.Database.SQLite.Path)
	assert.Equal(t, 0.6, cfg.Assistant.FuzzyCutoff)
	assert.Equal(t, 5, cfg.Assistant.LowStockThreshold)
	assert.Equal(t, 5, cfg.Assistant.RecentSalesLimit)
	assert.Equal(t, "KES", cfg.Assistant.Currency)
	assert.Equal(t, "BiasharaBot", cfg.Assistant.BotName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 24*time.Hour, cfg.Database.Redis.DedupeWindow())
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, `
server:
  address: ":10000"
database:
  driver: postgres
  postgres:
    host: localhost
    database: biashara
    user: shop
    password: ${TEST_PG_PASSWORD}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "host=localhost port=5432 user=shop password=s3cret dbname=biashara sslmode=disable",
		cfg.Database.Postgres.GetDSN())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errPart string
	}{
		{
			name:    "unknown driver",
			body:    "database:\n  driver: mysql\n",
			errPart: "database.driver",
		},
		{
			name:    "postgres without host",
			body:    "database:\n  driver: postgres\n",
			errPart: "database.postgres.host",
		},
		{
			name:    "cutoff above one",
			body:    "assistant:\n  fuzzy_cutoff: 1.5\n",
			errPart: "fuzzy_cutoff",
		},
		{
			name:    "camunda enabled without broker",
			body:    "camunda:\n  enabled: true\n",
			errPart: "broker_address",
		},
		{
			name:    "sms without destination",
			body:    "notifications:\n  aws:\n    region: eu-west-1\n  low_stock_sms:\n    enabled: true\n",
			errPart: "phone_number or topic_arn",
		},
		{
			name:    "email without region",
			body:    "notifications:\n  report_email:\n    enabled: true\n    from_email: shop@example.com\n    to: [owner@example.com]\n",
			errPart: "aws.region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, "server:\n  address: \":1\"\n"+tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWorkerConfigHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"handle-business-message": {Enabled: false},
	}}
	applyDefaults(cfg)

	wc := GetWorkerConfig(cfg, "handle-business-message")
	assert.False(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
	assert.False(t, IsWorkerEnabled(cfg, "handle-business-message"))

	assert.True(t, IsWorkerEnabled(cfg, "other"))
	assert.Equal(t, 3, GetWorkerConfig(cfg, "other").MaxRetries)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestLoadFromFile_PortFallback(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)

	t.Setenv("PORT", "5000")
	cfg, err = LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.Address)
}
