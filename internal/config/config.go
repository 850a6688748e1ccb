// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath        = "config.toml"
	DefaultHTTPAddr          = ":8080"
	DefaultCacheTable        = "gomashio_slack_cache"
	DefaultCacheTTL          = "24h"
	DefaultTokenParameter    = "gomashio_slack_token"
	DefaultMessagesPerSecond = 1.0
	DefaultBurst             = 3
)

// Config is the root application configuration loaded from TOML.
// It is immutable after Load; components receive it (or a section of
// it) at construction time and never write back.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	Slack  SlackConfig  `toml:"slack"`
	Cache  CacheConfig  `toml:"cache"`
	Rules  RulesConfig  `toml:"rules"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// SlackConfig holds the outbound Slack deployment variant: either a
// bot token read from SSM (token_parameter) or a pre-shared incoming
// webhook URL. webhook_url wins when both are set.
type SlackConfig struct {
	TokenParameter    string  `toml:"token_parameter"`
	WebhookURL        string  `toml:"webhook_url"`
	MessagesPerSecond float64 `toml:"messages_per_second"`
	Burst             int     `toml:"burst"`
}

// CacheConfig holds the DynamoDB table caching the Slack directory,
// the record TTL, and an optional cron expression for warm refreshes.
type CacheConfig struct {
	Table           string `toml:"table"`
	TTL             string `toml:"ttl"`
	RefreshSchedule string `toml:"refresh_schedule"`
}

// Expiry returns the cache record TTL as a duration (default 24h).
func (c CacheConfig) Expiry() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// RulesConfig holds the three notification mappings: GitHub login →
// Slack display name (or ID), event → suppressed actions, and the
// ordered repository routing rules.
type RulesConfig struct {
	AccountMap   map[string]string   `toml:"account_map"`
	IgnoreEvents map[string][]string `toml:"ignore_events"`
	Repositories []RepositoryRule    `toml:"repository"`
}

// RepositoryRule routes repositories whose name matches Pattern
// (case-insensitive regex) to Channel. Declared order is match order.
type RepositoryRule struct {
	Pattern string `toml:"pattern"`
	Channel string `toml:"channel"`
}

// Ignored reports whether the (event, action) pair is suppressed.
// A webhook payload without an action looks up the empty string.
func (r RulesConfig) Ignored(event, action string) bool {
	for _, a := range r.IgnoreEvents[event] {
		if a == action {
			return true
		}
	}
	return false
}

// Load reads and parses the TOML config file at path and applies
// default values for missing fields. A missing or unreadable file is
// an error: the relay cannot route anything without its rules.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Slack: SlackConfig{
			TokenParameter:    DefaultTokenParameter,
			MessagesPerSecond: DefaultMessagesPerSecond,
			Burst:             DefaultBurst,
		},
		Cache: CacheConfig{
			Table: DefaultCacheTable,
			TTL:   DefaultCacheTTL,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Rules.AccountMap == nil {
		cfg.Rules.AccountMap = map[string]string{}
	}
	if cfg.Rules.IgnoreEvents == nil {
		cfg.Rules.IgnoreEvents = map[string][]string{}
	}

	return cfg, nil
}
