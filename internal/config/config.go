// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package config loads Footfall's configuration from struct defaults, an
// optional YAML file and environment variables, in that order of priority.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Weather  WeatherConfig  `koanf:"weather"`
	Storage  StorageConfig  `koanf:"storage"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Cache    CacheConfig    `koanf:"cache"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds inbound rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// UpstreamConfig describes the traffic reporting API. SiteCode is the default
// site tree code sent with every report request. RequestsPerSecond caps
// outbound calls; 0 disables the limiter.
type UpstreamConfig struct {
	BaseURL           string        `koanf:"base_url"`
	Origin            string        `koanf:"origin"`
	UserID            string        `koanf:"user_id"`
	SiteCode          string        `koanf:"site_code"`
	Timeout           time.Duration `koanf:"timeout"`
	MaxRetries        int           `koanf:"max_retries"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
}

// WeatherConfig describes the weather timeline API.
type WeatherConfig struct {
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
	Location string `koanf:"location"`
}

// StorageConfig holds the report file directory and the fetch manifest.
type StorageConfig struct {
	DataDir     string `koanf:"data_dir"`
	ManifestDir string `koanf:"manifest_dir"`
}

// ScheduleConfig enables a cron driven refresh of every page. LookbackDays
// widens the scheduled date range; 0 fetches today only.
type ScheduleConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Spec         string `koanf:"spec"`
	Token        string `koanf:"token"`
	LookbackDays int    `koanf:"lookback_days"`
}

// CacheConfig controls the analytics result cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
