// Package config loads relnotify settings from defaults, an optional
// YAML/JSON file, a .env file and the environment, in that order.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/paulstuart/gollm/relnotify/pkg/profile"
)

// Environment variables read at startup.
const (
	EnvSlackToken   = "SLACK_TOKEN"
	EnvSlackChannel = "SLACK_CHANNEL"
	EnvWebhookBase  = "SLACK_WEBHOOK_BASE"
	EnvCachePath    = "RELNOTIFY_CACHE"
	EnvLogLevel     = "RELNOTIFY_LOG_LEVEL"
)

// DotEnvPath is read, when present, before the environment is consulted.
const DotEnvPath = ".env"

// Config is the full runtime configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Slack SlackConfig `json:"slack"`
	Store StoreConfig `json:"store"`
	HTTP  HTTPConfig  `json:"http"`
	Log   LogConfig   `json:"log"`

	// Schedule drives the watch command: a cron expression or "@every <duration>".
	Schedule string `json:"schedule,omitempty"`

	// StrictDelivery keeps a source's watermark in place unless every new
	// release of that source was delivered.
	StrictDelivery bool `json:"strict_delivery,omitempty"`

	Sources []profile.Profile `json:"sources,omitempty"`
}

type SlackConfig struct {
	Token   string `json:"token,omitempty"`
	Channel string `json:"channel,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type StoreConfig struct {
	Driver      string `json:"driver,omitempty"` // "file" or "sqlite"
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type HTTPConfig struct {
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"` // "console" or "json"
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Slack:    SlackConfig{BaseURL: "https://hooks.slack.com/services", Timeout: "10s"},
		Store:    StoreConfig{Driver: "file", Path: "./tmp/cache.json"},
		HTTP:     HTTPConfig{Timeout: "20s"},
		Log:      LogConfig{Level: "info", Format: "console"},
		Schedule: "@every 30m",
		Sources:  profile.Defaults(),
	}
}

// Load builds the configuration. An empty path skips the config file; a
// non-empty one must exist and parse.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := loadDotEnv(DotEnvPath); err != nil {
		return nil, err
	}

	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// loadDotEnv exports the variables of a .env file without overriding ones
// already set. A missing file is fine.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func decode(path string, data []byte, cfg *Config) error {
	jb, err := coerceToJSONBytes(path, data)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("trailing data")
		}
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Slack.Token, EnvSlackToken)
	set(&c.Slack.Channel, EnvSlackChannel)
	set(&c.Slack.BaseURL, EnvWebhookBase)
	set(&c.Store.Path, EnvCachePath)
	set(&c.Log.Level, EnvLogLevel)
}

func (c *Config) SlackTimeout() time.Duration { return durationOr(c.Slack.Timeout, 10*time.Second) }
func (c *Config) HTTPTimeout() time.Duration  { return durationOr(c.HTTP.Timeout, 20*time.Second) }
func (c *Config) BusyTimeout() time.Duration  { return durationOr(c.Store.BusyTimeout, 0) }

func durationOr(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
