// Package config provides YAML-based configuration loading for Corkboard.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Corkboard configuration, loaded from corkboard.yaml.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Server      ServerConfig      `yaml:"server"`
	Placement   PlacementConfig   `yaml:"placement"`
	Notify      NotifyConfig      `yaml:"notify"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// PlacementConfig tunes the placement engine.
type PlacementConfig struct {
	// MoveTimeoutMS bounds how long a move may wait on a column lock
	// before failing busy. Zero means no deadline.
	MoveTimeoutMS int `yaml:"move_timeout_ms"`
}

// MoveTimeout returns the configured lock-wait bound as a duration.
func (p PlacementConfig) MoveTimeout() time.Duration {
	return time.Duration(p.MoveTimeoutMS) * time.Millisecond
}

// NotifyConfig configures the activity digest watcher and its chat adapters.
type NotifyConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalMinutes int           `yaml:"interval_minutes"`
	Slack           SlackConfig   `yaml:"slack"`
	Discord         DiscordConfig `yaml:"discord"`
}

// SlackConfig holds credentials for the Slack notify adapter.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds credentials for the Discord notify adapter.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// MaintenanceConfig configures the proactive rebalance sweep.
type MaintenanceConfig struct {
	Enabled bool `yaml:"enabled"`
	// Cron is a standard 5-field cron expression (minute granularity).
	Cron string `yaml:"cron"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Database == "" {
		c.Database.Database = "corkboard"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Placement.MoveTimeoutMS == 0 {
		c.Placement.MoveTimeoutMS = 5000
	}
	if c.Notify.IntervalMinutes == 0 {
		c.Notify.IntervalMinutes = 30
	}
	if c.Maintenance.Cron == "" {
		c.Maintenance.Cron = "0 3 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Placement.MoveTimeoutMS < 0 {
		errs = append(errs, "placement.move_timeout_ms must not be negative")
	}
	if c.Notify.Enabled {
		hasSlack := c.Notify.Slack.BotToken != ""
		hasDiscord := c.Notify.Discord.BotToken != ""
		if !hasSlack && !hasDiscord {
			errs = append(errs, "notify.enabled requires a slack or discord bot_token")
		}
		if hasSlack && c.Notify.Slack.ChannelID == "" {
			errs = append(errs, "notify.slack.channel_id is required with a slack token")
		}
		if hasDiscord && c.Notify.Discord.ChannelID == "" {
			errs = append(errs, "notify.discord.channel_id is required with a discord token")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
