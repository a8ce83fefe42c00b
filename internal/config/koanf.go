// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config files searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/footfall/config.yaml",
	"/etc/footfall/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFile is loaded into the process environment before the env layer.
const DotEnvFile = ".env"

// Values shipped with the dashboard this service replaces.
const (
	DefaultBaseURL         = "https://winnertech.hk:8090/api/en-us/"
	DefaultOrigin          = "https://winnertech.hk:8090"
	DefaultUserID          = "4748ef52-ccb6-4dbe-acf4-1268d25123d8"
	DefaultSiteCode        = "P00077"
	DefaultWeatherBaseURL  = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline/"
	DefaultWeatherLocation = "-6.931706738510438, 107.57600657226179"
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3857,
			Host:            "0.0.0.0",
			Timeout:         60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Upstream: UpstreamConfig{
			BaseURL:    DefaultBaseURL,
			Origin:     DefaultOrigin,
			UserID:     DefaultUserID,
			SiteCode:   DefaultSiteCode,
			Timeout:    30 * time.Second,
			RetryDelay: time.Second,
		},
		Weather: WeatherConfig{
			BaseURL:  DefaultWeatherBaseURL,
			Location: DefaultWeatherLocation,
		},
		Storage: StorageConfig{
			DataDir:     "data",
			ManifestDir: "data/manifest",
		},
		Schedule: ScheduleConfig{
			Spec: "0 6 * * *",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
	}
}

// sliceConfigPaths are split on commas when they arrive as a single string
// from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Anything not listed is ignored.
var envMappings = map[string]string{
	"http_port":            "server.port",
	"http_host":            "server.host",
	"server_timeout":       "server.timeout",
	"shutdown_timeout":     "server.shutdown_timeout",
	"rate_limit_requests":  "security.rate_limit_requests",
	"rate_limit_window":    "security.rate_limit_window",
	"disable_rate_limit":   "security.rate_limit_disabled",
	"cors_origins":         "security.cors_origins",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
	"log_caller":           "logging.caller",
	"upstream_base_url":    "upstream.base_url",
	"upstream_origin":      "upstream.origin",
	"upstream_user_id":     "upstream.user_id",
	"upstream_site_code":   "upstream.site_code",
	"upstream_timeout":     "upstream.timeout",
	"upstream_max_retries": "upstream.max_retries",
	"upstream_retry_delay": "upstream.retry_delay",
	"upstream_rps":         "upstream.requests_per_second",
	"weather_base_url":     "weather.base_url",
	"weather_api_key":      "weather.api_key",
	"weather_location":     "weather.location",
	"data_dir":             "storage.data_dir",
	"manifest_dir":         "storage.manifest_dir",
	"schedule_enabled":     "schedule.enabled",
	"schedule_spec":        "schedule.spec",
	"schedule_token":       "schedule.token",
	"schedule_lookback":    "schedule.lookback_days",
	"cache_ttl":            "cache.ttl",
}

// Load reads the .env file (if any) and then LoadWithKoanf.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}
	return LoadWithKoanf()
}

// LoadWithKoanf layers defaults, the config file and the environment, then
// validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
