package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"

	"github.com/paulstuart/gollm/relnotify/pkg/profile"
)

// ConfigurationError lists required delivery settings that are missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	return fmt.Sprintf("missing required env %s, you can use %q", strings.Join(quoted, ", "), DotEnvPath)
}

// DeliveryReady reports whether messages can be sent. The result is a
// *ConfigurationError when a required setting is missing.
func (c *Config) DeliveryReady() error {
	var missing []string
	if strings.TrimSpace(c.Slack.Token) == "" {
		missing = append(missing, EnvSlackToken)
	}
	if strings.TrimSpace(c.Slack.Channel) == "" {
		missing = append(missing, EnvSlackChannel)
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// Validate checks everything except the delivery credentials, which may
// legitimately be absent (see DeliveryReady).
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Store),
		validation.Field(&c.HTTP),
		validation.Field(&c.Log),
		validation.Field(&c.Slack),
		validation.Field(&c.Schedule, validation.By(cronSpec)),
		validation.Field(&c.Sources, validation.Required, validation.By(uniqueIDs)),
	)
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.In("file", "json", "sqlite", "sqlite3")),
		validation.Field(&s.BusyTimeout, validation.By(duration)),
	)
}

func (h HTTPConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Timeout, validation.By(duration)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.By(logLevel)),
		validation.Field(&l.Format, validation.In("console", "json")),
	)
}

func (s SlackConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Timeout, validation.By(duration)),
	)
}

func duration(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a Go duration such as 10s")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func logLevel(value any) error {
	s, _ := value.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return errors.New("must be one of trace, debug, info, warn, error")
}

func cronSpec(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s); err != nil {
		return fmt.Errorf("invalid schedule: %v", err)
	}
	return nil
}

func uniqueIDs(value any) error {
	ps, _ := value.([]profile.Profile)
	seen := map[string]bool{}
	for _, p := range ps {
		if seen[p.ID] {
			return fmt.Errorf("duplicate source id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
