package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/paulstuart/gollm/relnotify/pkg/markup"
)

// soraBlock renders one release section the way Sphinx lays out the Sora notes.
func soraBlock(title string, sections map[string][]string, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="section" id="v%s">
<h2>%s<a class="headerlink" href="#v%s" title="Permalink">¶</a></h2>
<table class="docutils field-list"><tbody>
<tr class="field-odd field"><th class="field-name">日付</th><td class="field-body">2024-01-15</td></tr>
</tbody></table>
`, title, title, title)
	for _, name := range order {
		fmt.Fprintf(&b, `<div class="section" id="%s-%s">
<h3>%s<a class="headerlink" href="#%s">¶</a></h3>
<ul class="simple">
`, title, name, name, name)
		for _, item := range sections[name] {
			fmt.Fprintf(&b, "<li><p>%s</p></li>\n\n", item)
		}
		b.WriteString("</ul>\n</div>\n")
	}
	b.WriteString("</div>\n")
	return b.String()
}

// soraJSBlock renders one release section of the JavaScript SDK notes.
func soraJSBlock(title string, items ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="section" id="v%s">
<h2>%s<a class="headerlink" href="#v%s">¶</a></h2>
<dl class="docutils">
<dt class="field">CHANGE</dt>
<dd><ul class="simple">
`, title, title, title)
	for _, item := range items {
		fmt.Fprintf(&b, "<li>%s</li>\n", item)
	}
	b.WriteString("</ul></dd>\n</dl>\n</div>\n")
	return b.String()
}

func sphinxPage(blocks ...string) string {
	return `<!DOCTYPE html><html><head><title>Release notes</title></head><body>
<div class="wy-nav-content"><div class="rst-content">
<div role="main" class="document">
<div itemprop="articleBody">
<div class="section" id="release-notes">
<h1>リリースノート<a class="headerlink" href="#release-notes">¶</a></h1>
` + strings.Join(blocks, "\n") + `
</div>
</div>
</div>
</div></div>
</body></html>`
}

func parsePage(t *testing.T, html string) markup.Node {
	t.Helper()
	doc, err := markup.ParseBytes([]byte(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}
