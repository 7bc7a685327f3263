package watermark

import (
	"context"

	"github.com/paulstuart/gollm/relnotify/pkg/logx"
	"github.com/paulstuart/gollm/relnotify/pkg/model"
)

// ReadOnly wraps a store so that Load reads through and Save is dropped.
// Dry runs use it to preview pending releases without consuming them.
func ReadOnly(s Store, log logx.Logger) Store {
	return readOnly{Store: s, log: log}
}

type readOnly struct {
	Store
	log logx.Logger
}

func (r readOnly) Save(_ context.Context, w model.Watermark) error {
	r.log.Info("dry run, watermark not saved", logx.Int("sources", len(w)))
	return nil
}
