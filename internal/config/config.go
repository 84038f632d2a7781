// Package config loads server settings from defaults, an optional YAML file,
// and SIMWEB_-prefixed environment variables, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	// Port the web UI listens on.
	Port int `mapstructure:"port"`

	// Host is the externally visible hostname, used to derive the backend
	// origin when BackendURL is not set explicitly.
	Host string `mapstructure:"host"`

	// BackendURL overrides backend origin resolution when non-empty.
	BackendURL string `mapstructure:"backend_url"`

	// AnalyzeTimeout bounds a full analysis round trip.
	AnalyzeTimeout time.Duration `mapstructure:"analyze_timeout"`

	// HealthTimeout bounds the backend health probe.
	HealthTimeout time.Duration `mapstructure:"health_timeout"`
}

// Load reads configuration. configFile may be empty; a missing explicit file
// is an error, a missing default search is not.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 3000)
	v.SetDefault("host", "")
	v.SetDefault("backend_url", "")
	v.SetDefault("analyze_timeout", "5m")
	v.SetDefault("health_timeout", "5s")

	v.SetEnvPrefix("SIMWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return &cfg, nil
}
