package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/paulstuart/gollm/relnotify/pkg/markup"
)

const (
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "gollm-relnotify/1.0 (+https://github.com/paulstuart/gollm/relnotify)"
)

// ErrNoDocument is returned when a page answered but carried no HTML document.
var ErrNoDocument = errors.New("no html document in response")

// FetchError reports a failure to retrieve a release-notes page.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetcherConfig tunes page retrieval.
type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher retrieves release-notes pages with colly.
type Fetcher struct {
	timeout   time.Duration
	userAgent string
}

// NewFetcher fills unset fields with defaults.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Fetcher{timeout: cfg.Timeout, userAgent: cfg.UserAgent}
}

// Fetch visits url and returns the parsed page.
//
// A fresh collector is used per call so a long-running process can fetch the
// same page again on every run.
func (f *Fetcher) Fetch(ctx context.Context, url string) (markup.Node, error) {
	c := colly.NewCollector()
	c.UserAgent = f.userAgent
	c.Context = ctx
	c.SetRequestTimeout(f.timeout)

	var (
		doc    markup.Node
		status int
	)

	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		if doc == nil {
			doc = markup.FromSelection(e.DOM)
		}
	})

	if err := c.Visit(url); err != nil {
		return nil, &FetchError{URL: url, StatusCode: status, Err: err}
	}
	c.Wait()

	if doc == nil {
		return nil, &FetchError{URL: url, Err: ErrNoDocument}
	}
	return doc, nil
}
