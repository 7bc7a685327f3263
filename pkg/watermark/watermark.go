// Package watermark persists the last-notified release title per source.
//
// Drivers:
//   - "file": one JSON object {"<source>": "<title>"}, replaced via rename
//   - "sqlite": a single table in a SQLite database file
package watermark

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/paulstuart/gollm/relnotify/pkg/logx"
	"github.com/paulstuart/gollm/relnotify/pkg/model"
)

const DefaultPath = "./tmp/cache.json"

// Store loads and saves the whole watermark at once.
type Store interface {
	// Load never returns a nil map. A missing store is empty with no error;
	// an unreadable or corrupt one is empty and the error says why.
	Load(ctx context.Context) (model.Watermark, error)
	// Save overwrites the stored watermark with w.
	Save(ctx context.Context, w model.Watermark) error
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver      string        `json:"driver"`
	Path        string        `json:"path"`
	BusyTimeout time.Duration `json:"-"` // sqlite only
}

// Open initializes the configured store. An empty driver means "file".
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = DefaultPath
	}
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", "file", "json":
		return &fileStore{path: cfg.Path, log: log}, nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown watermark driver: " + driver)
	}
}
