// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testWeatherKey stands in for the secret that only comes from the
// environment.
const testWeatherKey = "test-weather-key"

// isolate points CONFIG_PATH at a missing file so a stray config.yaml in the
// working directory cannot leak into a test, and supplies the weather key.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("WEATHER_API_KEY", testWeatherKey)
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			t.Skipf("config file %s present in working directory", p)
		}
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Upstream.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.SiteCode != "P00077" {
		t.Errorf("SiteCode = %q, want P00077", cfg.Upstream.SiteCode)
	}
	if cfg.Upstream.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.Upstream.MaxRetries)
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Upstream.Timeout)
	}
	if cfg.Weather.Location != DefaultWeatherLocation {
		t.Errorf("Location = %q", cfg.Weather.Location)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache TTL = %s", cfg.Cache.TTL)
	}
	if cfg.Weather.APIKey != testWeatherKey {
		t.Errorf("APIKey = %q, want value from WEATHER_API_KEY", cfg.Weather.APIKey)
	}
}

func TestLoadWithKoanf_WeatherKeyRequired(t *testing.T) {
	isolate(t)
	t.Setenv("WEATHER_API_KEY", "")

	if _, err := LoadWithKoanf(); err == nil || !strings.Contains(err.Error(), "WEATHER_API_KEY") {
		t.Fatalf("LoadWithKoanf() error = %v, want WEATHER_API_KEY required", err)
	}
	if defaultConfig().Weather.APIKey != "" {
		t.Error("weather API key has a built-in default")
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("UPSTREAM_SITE_CODE", "P00100")
	t.Setenv("UPSTREAM_MAX_RETRIES", "3")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Upstream.SiteCode != "P00100" {
		t.Errorf("SiteCode = %q", cfg.Upstream.SiteCode)
	}
	if cfg.Upstream.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.Upstream.MaxRetries)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.Upstream.Timeout)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
}

func TestLoadWithKoanf_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "upstream:\n  site_code: P00200\nstorage:\n  data_dir: /var/lib/footfall\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("WEATHER_API_KEY", testWeatherKey)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Upstream.SiteCode != "P00200" {
		t.Errorf("SiteCode = %q, want P00200", cfg.Upstream.SiteCode)
	}
	if cfg.Storage.DataDir != "/var/lib/footfall" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad retries", func(c *Config) { c.Upstream.MaxRetries = 11 }, "UPSTREAM_MAX_RETRIES"},
		{"bad base url", func(c *Config) { c.Upstream.BaseURL = "ftp://x" }, "UPSTREAM_BASE_URL"},
		{"missing key", func(c *Config) { c.Weather.APIKey = "" }, "WEATHER_API_KEY"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"rate window", func(c *Config) { c.Security.RateLimitWindow = time.Millisecond }, "RATE_LIMIT_WINDOW"},
		{"rate disabled skips checks", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"schedule without token", func(c *Config) { c.Schedule.Enabled = true }, "SCHEDULE_TOKEN"},
		{"schedule bad spec", func(c *Config) {
			c.Schedule.Enabled = true
			c.Schedule.Token = "Bearer x"
			c.Schedule.Spec = "every day"
		}, "SCHEDULE_SPEC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			cfg.Weather.APIKey = testWeatherKey
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
