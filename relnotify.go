// Package relnotify watches release-notes pages and posts every release it
// has not announced yet to a chat webhook.
package relnotify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paulstuart/gollm/relnotify/pkg/logx"
	"github.com/paulstuart/gollm/relnotify/pkg/markup"
	"github.com/paulstuart/gollm/relnotify/pkg/model"
	"github.com/paulstuart/gollm/relnotify/pkg/notifier"
	"github.com/paulstuart/gollm/relnotify/pkg/profile"
	"github.com/paulstuart/gollm/relnotify/pkg/scraper"
	"github.com/paulstuart/gollm/relnotify/pkg/watermark"
)

// Fetcher retrieves and parses one release-notes page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (markup.Node, error)
}

// Runner performs one pass over every source.
type Runner struct {
	Sources  []profile.Profile
	Fetcher  Fetcher
	Store    watermark.Store
	Notifier notifier.Notifier

	// Delivery is the outcome of the delivery configuration check. When it is
	// non-nil nothing is sent, but watermarks still advance unless Strict.
	Delivery error

	// Strict advances a source's watermark only after all of its new releases
	// were delivered.
	Strict bool

	// Timeout bounds each source's fetch. Zero means scraper.DefaultTimeout.
	Timeout time.Duration

	Log logx.Logger
}

// Result summarizes a run.
type Result struct {
	RunID   string
	Sources []SourceResult
	Changed map[string]string // source id -> new watermark title
}

// SourceResult is the outcome for one source.
type SourceResult struct {
	ID        string
	Found     int  // new releases extracted
	Delivered int  // messages sent
	Failed    int  // messages that could not be sent
	Skipped   bool // delivery was not configured
	Advanced  bool // watermark moved to the newest release
	Err       error
}

// NotificationCount is the number of messages sent across sources.
func (r Result) NotificationCount() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Delivered
	}
	return n
}

// Run fetches every source, notifies new releases and persists the watermark
// when it changed. Source failures are logged and isolated; only a failure to
// persist the watermark is returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.New().String()}
	log := r.Log.With(logx.String("run_id", res.RunID))

	wm, err := r.Store.Load(ctx)
	if err != nil {
		log.Warn("watermark unreadable, starting from scratch", logx.Err(err))
	}
	if wm == nil {
		wm = model.Watermark{}
	}
	prev := wm.Clone()

	if r.Delivery != nil {
		log.Error("delivery skipped", logx.Err(r.Delivery))
	}

	for _, src := range r.Sources {
		sr := r.runSource(ctx, log.With(logx.String("source", src.ID)), src, wm)
		res.Sources = append(res.Sources, sr)
	}

	res.Changed = wm.Changed(prev)
	if len(res.Changed) == 0 {
		log.Info("There is no update.")
		return res, nil
	}
	for _, id := range model.Watermark(res.Changed).Keys() {
		log.Info(fmt.Sprintf("%s updated: %s", id, res.Changed[id]), logx.String("source", id))
	}

	if err := r.Store.Save(ctx, wm); err != nil {
		return res, fmt.Errorf("save watermark: %w", err)
	}
	return res, nil
}

func (r *Runner) runSource(ctx context.Context, log logx.Logger, src profile.Profile, wm model.Watermark) SourceResult {
	sr := SourceResult{ID: src.ID}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = scraper.DefaultTimeout
	}
	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	doc, err := r.Fetcher.Fetch(fetchCtx, src.URL)
	cancel()
	if err != nil {
		sr.Err = err
		log.Error("fetch failed", logx.String("url", src.URL), logx.Duration("took", time.Since(start)), logx.Err(err))
		return sr
	}
	log.Debug("fetched", logx.String("url", src.URL), logx.Duration("took", time.Since(start)))

	since := wm[src.ID]
	releases := scraper.Extract(doc, src, since)
	sr.Found = len(releases)
	log.Debug("extracted releases", logx.Int("count", len(releases)), logx.String("since", since))
	if len(releases) == 0 {
		return sr
	}

	if r.Delivery != nil || r.Notifier == nil {
		sr.Skipped = true
	} else {
		for _, rel := range releases {
			if err := r.Notifier.Notify(ctx, src, rel); err != nil {
				sr.Failed++
				log.Warn("notification failed", logx.String("release", rel.Title), logx.Err(err))
				continue
			}
			sr.Delivered++
			log.Debug("notification sent", logx.String("release", rel.Title))
		}
	}

	if r.Strict && (sr.Skipped || sr.Failed > 0) {
		log.Warn("watermark held back until delivery succeeds",
			logx.String("watermark", since), logx.Int("failed", sr.Failed), logx.Bool("skipped", sr.Skipped))
		return sr
	}

	newest := releases[0].Title
	if newest == "" {
		// An empty watermark means "no stop marker", which would resend the whole page next run.
		log.Warn("newest release has no title, watermark not advanced", logx.String("selector", src.Title))
		return sr
	}
	wm[src.ID] = newest
	sr.Advanced = true
	return sr
}
