package config

import "time"

// Config is the resolved adlens configuration: defaults, then the config
// file, then ADLENS_* environment variables, then command-line overrides.
type Config struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Search  SearchConfig  `mapstructure:"search" yaml:"search"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	CORS    CORSConfig    `mapstructure:"cors" yaml:"cors"`
}

// BackendConfig points at the ads search service.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Contract selects the wire contract: post (canonical) or legacy.
	Contract string `mapstructure:"contract" yaml:"contract"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultDepth string `mapstructure:"default_depth" yaml:"default_depth"`
}

// UIConfig tunes card rendering.
type UIConfig struct {
	TextLimit  int    `mapstructure:"text_limit" yaml:"text_limit"`
	DateLayout string `mapstructure:"date_layout" yaml:"date_layout"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig controls the server logger.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is json or console.
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Port of the exporter; /metrics on the main server proxies it.
	Port int `mapstructure:"port" yaml:"port"`
}

// CORSConfig lists origins allowed to call the JSON API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}
