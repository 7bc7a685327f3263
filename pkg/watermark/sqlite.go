package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/paulstuart/gollm/relnotify/pkg/logx"
	"github.com/paulstuart/gollm/relnotify/pkg/model"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS watermarks (
	source     TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	// loadErr is reported once by the first Load after a recovery.
	loadErr error
	// broken is set when the database could not be prepared at all.
	broken error
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create watermark dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	err = prepare(db, cfg)
	if err == nil {
		return &sqliteStore{db: db, log: log}, nil
	}
	if !isCorrupt(err) {
		log.Warn("watermark database unusable", logx.String("path", cfg.Path), logx.Err(err))
		return &sqliteStore{db: db, log: log, broken: err}, nil
	}

	// A file that is not a database is moved aside and replaced with an
	// empty one, the way a corrupt JSON document is overwritten by the next save.
	_ = db.Close()
	aside := fmt.Sprintf("%s.corrupt-%d", cfg.Path, time.Now().Unix())
	if rerr := os.Rename(cfg.Path, aside); rerr != nil {
		return nil, fmt.Errorf("move corrupt watermark database: %w (%v)", rerr, err)
	}
	log.Warn("watermark database corrupt, starting empty",
		logx.String("path", cfg.Path), logx.String("moved_to", aside), logx.Err(err))

	db, err2 := sql.Open("sqlite", cfg.Path)
	if err2 != nil {
		return nil, fmt.Errorf("failed to open database: %w", err2)
	}
	db.SetMaxOpenConns(1)
	if err2 := prepare(db, cfg); err2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err2)
	}
	return &sqliteStore{
		db:      db,
		log:     log,
		loadErr: fmt.Errorf("watermark database %s was corrupt, moved to %s: %w", cfg.Path, aside, err),
	}, nil
}

func prepare(db *sql.DB, cfg Config) error {
	if cfg.BusyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set busy timeout: %w", err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func isCorrupt(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

func (s *sqliteStore) Load(ctx context.Context) (model.Watermark, error) {
	w := model.Watermark{}
	if s.broken != nil {
		return w, s.broken
	}
	if err := s.loadErr; err != nil {
		s.loadErr = nil
		return w, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT source, title FROM watermarks`)
	if err != nil {
		return w, fmt.Errorf("query watermarks: %w", err)
	}
	defer rows.Close()

	loaded := model.Watermark{}
	for rows.Next() {
		var source, title string
		if err := rows.Scan(&source, &title); err != nil {
			return w, fmt.Errorf("scan watermark: %w", err)
		}
		loaded[source] = title
	}
	if err := rows.Err(); err != nil {
		return w, fmt.Errorf("read watermarks: %w", err)
	}
	return loaded, nil
}

// Save replaces every row in one transaction.
func (s *sqliteStore) Save(ctx context.Context, w model.Watermark) error {
	if s.broken != nil {
		return s.broken
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM watermarks`); err != nil {
		return fmt.Errorf("clear watermarks: %w", err)
	}
	now := time.Now().Unix()
	for _, source := range w.Keys() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO watermarks (source, title, updated_at) VALUES (?, ?, ?)`,
			source, w[source], now,
		); err != nil {
			return fmt.Errorf("insert watermark %s: %w", source, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit watermarks: %w", err)
	}

	s.log.Debug("watermark saved", logx.String("driver", "sqlite"), logx.Int("sources", len(w)))
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
