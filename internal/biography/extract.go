package biography

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jmylchreest/countryleaders/pkg/cleaner"
)

// skipped elements contribute no text to a paragraph.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
}

// FirstParagraph returns the sanitized text of the first <p> whose plain text
// has at least minLen characters. Paragraphs that sanitize to nothing are
// passed over. ok is false when no paragraph qualifies.
func FirstParagraph(doc string, minLen int, rule cleaner.Rule) (text string, ok bool) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", false
	}

	d.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		var b strings.Builder
		for _, n := range p.Nodes {
			collectText(&b, n)
		}
		raw := strings.TrimSpace(b.String())
		if utf8.RuneCountInString(raw) < minLen {
			return true
		}
		clean := rule.Clean(raw)
		if clean == "" {
			return true
		}
		text, ok = clean, true
		return false
	})
	return text, ok
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// cacheKey normalizes a page URL for cache lookups: the fragment is dropped
// and a trailing slash removed.
func cacheKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	if len(parsed.Path) > 1 && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}
	return parsed.String()
}
