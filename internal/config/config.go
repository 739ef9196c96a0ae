package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		RateLimitBurst  int     `yaml:"rate_limit_burst"`
	} `yaml:"api"`

	HTTP struct {
		ListenAddress string `yaml:"listen_address"`
	} `yaml:"http"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Audit struct {
		Enabled    bool   `yaml:"enabled"`
		Path       string `yaml:"path"`
		ExportPath string `yaml:"export_path"`
	} `yaml:"audit"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.HTTP.ListenAddress == "" {
		cfg.HTTP.ListenAddress = ":8080"
	}
	if cfg.API.RateLimitPerSec == 0 {
		cfg.API.RateLimitPerSec = 10
	}
	if cfg.API.RateLimitBurst == 0 {
		cfg.API.RateLimitBurst = 20
	}
	if cfg.Audit.Enabled && cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/larek_journal.db"
	}
	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}

	return &cfg, nil
}
