package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverMemory)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":1972", cfg.AppPort)
	assert.Equal(t, BackendFS, cfg.StoreBackend)
	assert.Equal(t, "./data/files", cfg.StoreDir)
	assert.Equal(t, 5, cfg.StoreMaxAttempts)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "public", cfg.DBScheme)
	assert.Equal(t, int64(1<<30), cfg.UploadMaxBytes)
	assert.Equal(t, int64(1024), cfg.GUIDMaxBytes)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverPostgres)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "records")
	t.Setenv("STORE_BACKEND", BackendS3)
	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("S3_BUCKET", "records")
	t.Setenv("S3_SECRET_KEY", "s3secret")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("STORE_MAX_ATTEMPTS", "3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.DBPort)
	assert.Equal(t, BackendS3, cfg.StoreBackend)
	assert.True(t, cfg.S3PathStyle)
	assert.Equal(t, 3, cfg.StoreMaxAttempts)
	assert.Equal(t, "postgres://app:secret@db:6543/records?sslmode=disable", cfg.GetDSN())

	s := cfg.String()
	assert.NotContains(t, s, "secret")
	assert.True(t, strings.Contains(s, "DBPassword: ********"))
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DBDriver:         DriverMemory,
			StoreBackend:     BackendFS,
			StoreDir:         "/tmp/x",
			StoreMaxAttempts: 5,
			UploadMaxBytes:   1,
			GUIDMaxBytes:     1,
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"unknown backend", func(c *Config) { c.StoreBackend = "gcs" }},
		{"empty dir", func(c *Config) { c.StoreDir = "" }},
		{"s3 without bucket", func(c *Config) { c.StoreBackend = BackendS3; c.S3Endpoint = "x" }},
		{"zero attempts", func(c *Config) { c.StoreMaxAttempts = 0 }},
		{"zero upload limit", func(c *Config) { c.UploadMaxBytes = 0 }},
	}

	ok := base()
	require.NoError(t, ok.Validate())

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
