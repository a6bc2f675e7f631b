package wiki

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sections that carry no answerable prose. Their headings and content
// are dropped during extraction.
var skipSections = map[string]bool{
	"references":      true,
	"external links":  true,
	"see also":        true,
	"further reading": true,
	"notes":           true,
	"bibliography":    true,
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// extractText converts a prop=extracts HTML fragment to plain text.
// Headings of reference-style sections and everything about citations
// is removed; remaining block elements are joined with spaces and
// whitespace is collapsed, matching the cleaning the retrieval layer
// expects before chunking.
func extractText(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	// Citation markers and edit links never help the model.
	doc.Find("sup.reference, .mw-editsection, style, script, table").Remove()

	var b strings.Builder
	skipping := false

	doc.Find("body").Children().Each(func(_ int, sel *goquery.Selection) {
		switch goquery.NodeName(sel) {
		case "h2", "h3", "h4":
			heading := strings.TrimSpace(sel.Text())
			skipping = skipSections[strings.ToLower(heading)]
			if !skipping && heading != "" {
				b.WriteString(heading)
				b.WriteString(". ")
			}
		case "p", "ul", "ol", "blockquote", "dl":
			if skipping {
				return
			}
			text := strings.TrimSpace(sel.Text())
			if text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		}
	})

	// Extracts without section markup come through as bare text nodes.
	if b.Len() == 0 {
		b.WriteString(doc.Text())
	}

	return NormalizeWhitespace(b.String()), nil
}

// NormalizeWhitespace collapses all whitespace runs (including
// newlines) to single spaces and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}
