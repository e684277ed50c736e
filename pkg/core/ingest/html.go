package ingest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespaceRe = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)

	// MD&A section boundaries as they appear in 10-K/10-Q primary documents.
	mdnaStartRe = regexp.MustCompile(`(?i)item\s+[27]\s*[.\-:]?\s*management'?s\s+discussion\s+and\s+analysis`)
	mdnaEndRe   = regexp.MustCompile(`(?i)item\s+[38]\s*[.\-:]?\s*(quantitative|financial\s+statements|legal)`)
)

// HTMLToText converts a filing HTML document to plain text suitable for
// pattern extraction. Script and style content is dropped, block elements
// become line breaks, and runs of whitespace collapse. Input that is not
// parseable HTML falls through as-is with whitespace normalized.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeWhitespace(html)
	}

	doc.Find("script, style, noscript").Remove()

	// Line breaks at block boundaries keep table rows and paragraphs from
	// merging into one token stream.
	doc.Find("p, div, tr, br, li, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return normalizeWhitespace(doc.Text())
}

func normalizeWhitespace(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ExtractMDNA slices the Management's Discussion and Analysis section out of
// filing text. When the section markers cannot be found the full text is
// returned so downstream extraction still has something to work with.
func ExtractMDNA(text string) string {
	start := mdnaStartRe.FindStringIndex(text)
	if start == nil {
		return text
	}
	rest := text[start[0]:]
	if end := mdnaEndRe.FindStringIndex(rest[1:]); end != nil {
		return strings.TrimSpace(rest[:end[0]+1])
	}
	return strings.TrimSpace(rest)
}
