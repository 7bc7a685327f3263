package model

import (
	"maps"
	"slices"
)

// Release represents one published version found on a release-notes page.
type Release struct {
	Title    string    `json:"title"`
	Notes    string    `json:"notes,omitempty"`
	Sections []Section `json:"sections,omitempty"` // Document order, e.g. "Added" before "Fixed"
}

// Section is a named sub-block of a release's notes.
type Section struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
}

// Watermark maps a source id to the title of the newest release already notified.
type Watermark map[string]string

// Clone returns an independent copy. A nil watermark clones to an empty one.
func (w Watermark) Clone() Watermark {
	out := make(Watermark, len(w))
	maps.Copy(out, w)
	return out
}

// Changed returns the entries of w whose value differs from prev.
func (w Watermark) Changed(prev Watermark) map[string]string {
	changed := map[string]string{}
	for id, title := range w {
		if old, ok := prev[id]; !ok || old != title {
			changed[id] = title
		}
	}
	return changed
}

// Keys returns the source ids in sorted order.
func (w Watermark) Keys() []string {
	var keys []string
	for k := range w {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
