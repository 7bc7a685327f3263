package watermark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/paulstuart/gollm/relnotify/pkg/logx"
	"github.com/paulstuart/gollm/relnotify/pkg/model"
)

type fileStore struct {
	path string
	log  logx.Logger
}

func (s *fileStore) Load(_ context.Context) (model.Watermark, error) {
	w := model.Watermark{}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return w, nil
	}
	if err != nil {
		return w, fmt.Errorf("read watermark %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return w, nil
	}

	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return w, fmt.Errorf("parse watermark %s: %w", s.path, err)
	}
	for k, v := range m {
		w[k] = v
	}
	return w, nil
}

// Save writes to a temporary sibling and renames it over the target so a
// concurrent reader never sees a half-written document.
func (s *fileStore) Save(_ context.Context, w model.Watermark) error {
	if w == nil {
		w = model.Watermark{}
	}
	b, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode watermark: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watermark dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp watermark: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write watermark: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write watermark: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace watermark: %w", err)
	}

	s.log.Debug("watermark saved", logx.String("path", s.path), logx.Int("sources", len(w)))
	return nil
}

func (s *fileStore) Close() error { return nil }
