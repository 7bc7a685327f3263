// Package scraper fetches release-notes pages and turns them into release records.
package scraper

import (
	"strings"

	"github.com/paulstuart/gollm/relnotify/pkg/markup"
	"github.com/paulstuart/gollm/relnotify/pkg/model"
	"github.com/paulstuart/gollm/relnotify/pkg/profile"
)

// Extract returns the releases of doc that are newer than since, newest first.
//
// Blocks are read in document order and reading stops at the first block whose
// title equals since. An empty since has no stop marker, so every block is
// returned. Extract keeps no state between calls.
func Extract(doc markup.Node, p profile.Profile, since string) []model.Release {
	var releases []model.Release

	for _, block := range doc.Find(p.Blocks) {
		title := cleanTitle(markup.JoinText(block.Find(p.Title)), p.Strip)
		if since != "" && title == since {
			break
		}

		releases = append(releases, model.Release{
			Title:    title,
			Notes:    cleanLines(markup.JoinText(block.Find(p.Notes))),
			Sections: extractSections(block, p),
		})
	}

	return releases
}

// extractSections applies the profile's section rule to one release block.
func extractSections(block markup.Node, p profile.Profile) []model.Section {
	rule := p.Sections
	if rule.Selector == "" {
		return []model.Section{readSection(block, rule, p.Strip)}
	}

	var sections []model.Section
	for _, sec := range block.Find(rule.Selector) {
		sections = append(sections, readSection(sec, rule, p.Strip))
	}
	return sections
}

func readSection(n markup.Node, rule profile.SectionRule, strip []string) model.Section {
	return model.Section{
		Title: cleanTitle(markup.JoinText(n.Find(rule.Title)), strip),
		Notes: cleanLines(stripMarkers(markup.JoinText(n.Find(rule.Notes)), strip)),
	}
}

func cleanTitle(s string, strip []string) string {
	return strings.TrimSpace(stripMarkers(s, strip))
}

func stripMarkers(s string, strip []string) string {
	for _, m := range strip {
		if m != "" {
			s = strings.ReplaceAll(s, m, "")
		}
	}
	return s
}

// cleanLines trims every line and drops the empty ones.
func cleanLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
