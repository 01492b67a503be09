package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLConstants(t *testing.T) {
	if DefaultCacheTTL != 5*time.Minute {
		t.Errorf("Expected DefaultCacheTTL to be 5 minutes, got %v", DefaultCacheTTL)
	}

	if DefaultCleanupInterval != 10*time.Minute {
		t.Errorf("Expected DefaultCleanupInterval to be 10 minutes, got %v", DefaultCleanupInterval)
	}

	if RemoteImportTimeout != 30*time.Second {
		t.Errorf("Expected RemoteImportTimeout to be 30 seconds, got %v", RemoteImportTimeout)
	}
}

func TestUIConstants(t *testing.T) {
	if DefaultTableHeight < MinTableHeight {
		t.Errorf("DefaultTableHeight (%d) should be >= MinTableHeight (%d)", DefaultTableHeight, MinTableHeight)
	}

	totalWidth := MakeColumnWidth + ModelColumnWidth + YearColumnWidth + PriceColumnWidth + FuelColumnWidth
	if totalWidth < 50 || totalWidth > 100 {
		t.Errorf("Total column width (%d) seems unreasonable", totalWidth)
	}
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"negative ttl", func(c *Config) { c.Cache.DefaultTTL = -time.Second }},
		{"zero cleanup interval", func(c *Config) { c.Cache.CleanupInterval = 0 }},
		{"zero remote timeout", func(c *Config) { c.Import.RemoteTimeout = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carcat.yaml")
	content := `
database:
  path: /tmp/cars.db
cache:
  response_ttl: 90s
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("CARCAT_SERVER_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cars.db", cfg.Database.Path)
	assert.Equal(t, 90*time.Second, cfg.Cache.ResponseTTL)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.DefaultTTL)
	assert.Equal(t, DefaultCleanupInterval, cfg.Cache.CleanupInterval)
	assert.Equal(t, RemoteImportTimeout, cfg.Import.RemoteTimeout)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carcat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
