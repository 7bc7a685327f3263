// Package profile describes where releases live on each monitored release-notes page.
package profile

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Pilcrow is the anchor glyph Sphinx appends to every heading.
const Pilcrow = "¶"

// sphinxBlocks selects the per-version sections of a Sphinx "Read the Docs" release page.
const sphinxBlocks = ".rst-content .document > div > .section > .section"

// Profile is the static extraction description for one source.
type Profile struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"` // Display name used in messages, e.g. "Sora JavaScript SDK"
	URL      string      `json:"url"`
	Blocks   string      `json:"blocks"` // Top-level release blocks, newest first
	Title    string      `json:"title"`  // Relative to a block
	Notes    string      `json:"notes"`  // Relative to a block
	Sections SectionRule `json:"sections"`
	Strip    []string    `json:"strip,omitempty"` // Decorative markers removed from titles and section notes
}

// SectionRule maps a release block to its sub-sections.
//
// With a Selector every match inside the block is one section and Title/Notes
// are relative to that match. Without one the block itself yields a single
// section and Title/Notes are relative to the block.
type SectionRule struct {
	Selector string `json:"selector,omitempty"`
	Title    string `json:"title"`
	Notes    string `json:"notes"`
}

// Sora is the Sora server release notes page.
func Sora() Profile {
	return Profile{
		ID:     "sora",
		Name:   "Sora",
		URL:    "https://sora.shiguredo.jp/doc/RELEASE_NOTE.html",
		Blocks: sphinxBlocks,
		Title:  "h2",
		Notes:  ".docutils",
		Sections: SectionRule{
			Selector: ".section",
			Title:    "h3",
			Notes:    ".simple",
		},
		Strip: []string{Pilcrow},
	}
}

// SoraJS is the Sora JavaScript SDK release notes page.
func SoraJS() Profile {
	return Profile{
		ID:     "sorajs",
		Name:   "Sora JavaScript SDK",
		URL:    "https://sora.shiguredo.jp/js-sdk-doc/release.html",
		Blocks: sphinxBlocks,
		Title:  "h2",
		Notes:  ".docutils",
		Sections: SectionRule{
			Title: ".docutils .field",
			Notes: ".simple",
		},
		Strip: []string{Pilcrow},
	}
}

// Defaults returns the built-in sources in processing order.
func Defaults() []Profile {
	return []Profile{Sora(), SoraJS()}
}

// Validate implements validation.Validatable.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.URL, validation.Required),
		validation.Field(&p.Blocks, validation.Required),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Sections),
	)
}

// Validate implements validation.Validatable.
func (r SectionRule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Notes, validation.Required),
	)
}

// DisplayName falls back to the id when no name is configured.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
