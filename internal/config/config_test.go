package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, SourceHTTP, cfg.Dataset.Source)
	assert.Equal(t, DefaultBaseURL, cfg.Dataset.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATA_SOURCE", "postgres")
	t.Setenv("DATASET_FETCH_TIMEOUT", "5s")
	t.Setenv("DB_NAME", "mirror")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, SourcePostgres, cfg.Dataset.Source)
	assert.Equal(t, 5*time.Second, cfg.Dataset.FetchTimeout)
	assert.Equal(t, "mirror", cfg.Database.Database)
	assert.Equal(t, "pk.test", cfg.Map.AccessToken)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsMalformedEnv(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "eighty")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "HTTP_PORT")
	})

	t.Run("duration", func(t *testing.T) {
		t.Setenv("DATASET_FETCH_TIMEOUT", "soon")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "DATASET_FETCH_TIMEOUT")
	})
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 7000
dataset:
  base_url: http://localhost:9999/data
  concurrency: 2
  fetch_timeout: 10s
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:9999/data", cfg.Dataset.BaseURL)
	assert.Equal(t, 2, cfg.Dataset.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Dataset.FetchTimeout)
	// environment wins over the file
	assert.Equal(t, "warn", cfg.Logging.Level)
	// untouched sections keep their defaults
	assert.Equal(t, SourceHTTP, cfg.Dataset.Source)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown source", func(c *Config) { c.Dataset.Source = "s3" }, true},
		{"http without base url", func(c *Config) { c.Dataset.BaseURL = "" }, true},
		{"postgres without db name", func(c *Config) {
			c.Dataset.Source = SourcePostgres
			c.Database.Database = ""
		}, true},
		{"zero concurrency", func(c *Config) { c.Dataset.Concurrency = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabasePostgres(t *testing.T) {
	cfg := Default()
	cfg.Database.Password = "secret"

	pg := cfg.Database.Postgres()

	assert.Equal(t, "localhost", pg.Host)
	assert.Equal(t, 5432, pg.Port)
	assert.Equal(t, 10, pg.MaxOpenConns)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=lst_explorer sslmode=disable", pg.DSN())
}
