// Package config resolves adlens settings from viper into a typed Config.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/namelens/adlens/internal/adsearch"
)

// AppName names the XDG config directory and the env prefix.
const AppName = "adlens"

// EnvPrefix is the prefix of environment overrides (ADLENS_BACKEND_BASE_URL, ...).
const EnvPrefix = "ADLENS"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", adsearch.DefaultBaseURL)
	v.SetDefault("backend.timeout", "60s")
	v.SetDefault("backend.contract", string(adsearch.ContractPost))

	v.SetDefault("search.default_depth", "quick")

	v.SetDefault("ui.text_limit", 150)
	v.SetDefault("ui.date_layout", "02/01/2006")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load decodes the settings held by v, applies runtime overrides (dotted
// keys such as "backend.contract"), validates the result and stores it as
// the current config.
func Load(v *viper.Viper, runtimeOverrides ...map[string]any) (*Config, error) {
	settings := v.AllSettings()
	for _, overrides := range runtimeOverrides {
		for key, value := range overrides {
			setPath(settings, strings.Split(key, "."), value)
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.Backend.BaseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL)
	}
	contract, err := adsearch.ParseContract(c.Backend.Contract)
	if err != nil {
		return fmt.Errorf("backend.contract: %w", err)
	}
	c.Backend.Contract = string(contract)

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	if c.UI.TextLimit <= 0 {
		return fmt.Errorf("ui.text_limit must be positive, got %d", c.UI.TextLimit)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Search.DefaultDepth) == "" {
		return fmt.Errorf("search.default_depth must not be empty")
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigDir returns the XDG config directory of adlens.
func DefaultConfigDir() string {
	return gfconfig.GetAppConfigDir(AppName)
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

func setPath(settings map[string]any, path []string, value any) {
	if len(path) == 1 {
		settings[strings.ToLower(path[0])] = value
		return
	}
	key := strings.ToLower(path[0])
	child, ok := settings[key].(map[string]any)
	if !ok {
		child = make(map[string]any)
		settings[key] = child
	}
	setPath(child, path[1:], value)
}
