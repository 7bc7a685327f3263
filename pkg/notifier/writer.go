package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/paulstuart/gollm/relnotify/pkg/model"
	"github.com/paulstuart/gollm/relnotify/pkg/profile"
)

// Writer prints payloads as indented JSON instead of sending them.
type Writer struct {
	mu      sync.Mutex
	out     io.Writer
	channel string
}

// NewWriter returns a Writer that prints to out, addressing payloads to channel.
func NewWriter(out io.Writer, channel string) *Writer {
	return &Writer{out: out, channel: channel}
}

// Notify prints the payload for r. Concurrent calls do not interleave.
func (w *Writer) Notify(_ context.Context, p profile.Profile, r model.Release) error {
	b, err := json.MarshalIndent(BuildPayload(w.channel, p, r), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.out, "%s\n", b); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}
