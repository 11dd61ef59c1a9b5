package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "post", cfg.Backend.Contract)
	assert.Equal(t, "quick", cfg.Search.DefaultDepth)
	assert.Equal(t, 150, cfg.UI.TextLimit)
	assert.Equal(t, "02/01/2006", cfg.UI.DateLayout)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)

	assert.Same(t, cfg, GetConfig())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: https://ads.example.com
  contract: legacy
  timeout: 5s
ui:
  text_limit: 80
cors:
  allowed_origins: [https://app.example.com]
`), 0o600))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://ads.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, "legacy", cfg.Backend.Contract)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 80, cfg.UI.TextLimit)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("ADLENS_BACKEND_BASE_URL", "http://10.0.0.5:9000")
	t.Setenv("ADLENS_SEARCH_DEFAULT_DEPTH", "deep")
	t.Setenv("ADLENS_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.Backend.BaseURL)
	assert.Equal(t, "deep", cfg.Search.DefaultDepth)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRuntimeOverrides(t *testing.T) {
	cfg, err := Load(newViper(t), map[string]any{
		"backend.contract": "GET",
		"server.port":      "9999",
	})
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Backend.Contract)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := map[string]map[string]any{
		"relative base url": {"backend.base_url": "localhost:8000"},
		"unknown contract":  {"backend.contract": "soap"},
		"zero text limit":   {"ui.text_limit": 0},
		"port out of range": {"server.port": 70000},
		"blank depth":       {"search.default_depth": "  "},
		"bad duration":      {"backend.timeout": "soon"},
	}

	for name, overrides := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(newViper(t), overrides)
			require.Error(t, err)
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := DefaultConfigPath()
	require.NotEmpty(t, path)
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Contains(t, path, AppName)
}
