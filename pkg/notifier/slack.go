package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulstuart/gollm/relnotify/pkg/model"
	"github.com/paulstuart/gollm/relnotify/pkg/profile"
)

const (
	DefaultWebhookBase = "https://hooks.slack.com/services"
	DefaultTimeout     = 10 * time.Second
)

// DeliveryError reports a webhook call that did not succeed.
type DeliveryError struct {
	Source     string
	Release    string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("deliver %s %s: status %d: %s", e.Source, e.Release, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("deliver %s %s: %v", e.Source, e.Release, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// SlackConfig configures the incoming-webhook notifier.
type SlackConfig struct {
	Token   string
	Channel string
	BaseURL string
	Timeout time.Duration
}

// Slack posts release messages to a Slack incoming webhook.
type Slack struct {
	token      string
	channel    string
	baseURL    string
	httpClient *http.Client
}

// NewSlack requires a token and channel; other fields fall back to defaults.
func NewSlack(cfg SlackConfig) (*Slack, error) {
	if cfg.Token == "" {
		return nil, errors.New("slack token is not set")
	}
	if cfg.Channel == "" {
		return nil, errors.New("slack channel is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWebhookBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Slack{
		token:   cfg.Token,
		channel: cfg.Channel,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Notify sends one message for r.
func (s *Slack) Notify(ctx context.Context, p profile.Profile, r model.Release) error {
	body, err := json.Marshal(BuildPayload(s.channel, p, r))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+s.token, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Source: p.ID, Release: r.Title, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{
			Source:     p.ID,
			Release:    r.Title,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			Err:        errors.New(resp.Status),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
