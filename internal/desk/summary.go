package desk

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryLen = 200

// SummarizeHTML reduces an upstream error page to one readable line: its title and
// the visible body text, whitespace collapsed. Plain text passes through the same way.
func SummarizeHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return truncate(collapse(html))
	}
	doc.Find("script, style, noscript").Remove()

	title := collapse(doc.Find("title").First().Text())
	var parts []string
	textNodes(doc.Find("body"), &parts)
	body := collapse(strings.Join(parts, " "))

	var out string
	switch {
	case title != "" && body != "" && !strings.HasPrefix(body, title):
		out = title + " - " + body
	case body != "":
		out = body
	default:
		out = title
	}
	return truncate(out)
}

// textNodes collects text in document order, so adjacent blocks stay separated.
func textNodes(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			*parts = append(*parts, c.Text())
			return
		}
		textNodes(c, parts)
	})
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxSummaryLen {
		return s
	}
	return strings.TrimSpace(string(r[:maxSummaryLen])) + "..."
}
