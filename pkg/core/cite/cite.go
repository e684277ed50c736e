// Package cite provides deterministic citation tracking for extracted KPI
// values: document, page, and text span information.
package cite

import (
	"fmt"
	"strings"
)

// Citation records where an extracted value came from. The span is expressed
// in the local coordinates of TextPreview. Citations are plain values and are
// never mutated after construction.
type Citation struct {
	DocID       string `json:"doc_id"`
	Page        int    `json:"page"`
	Span        [2]int `json:"span"` // character positions [start, end), end exclusive
	TextPreview string `json:"text_preview"`
}

// String renders a short display form, e.g. "ppl_q2.txt (p.1): Adjusted EBITDA...".
func (c Citation) String() string {
	preview := c.TextPreview
	if len(preview) > 50 {
		preview = preview[:50]
	}
	return fmt.Sprintf("%s (p.%d): %s...", c.DocID, c.Page, preview)
}

// DefaultContextChars is the preview window used when the caller passes 0.
const DefaultContextChars = 100

// NewFromMatch builds a Citation for a regex match at [startPos, endPos) in
// text. The preview covers contextChars characters centered on the match and
// is trimmed of surrounding whitespace; the span is remapped to the preview's
// local coordinates and clamped so that
// 0 <= span[0] <= span[1] <= len(TextPreview) always holds.
func NewFromMatch(docID string, page int, text string, startPos, endPos, contextChars int) Citation {
	if contextChars <= 0 {
		contextChars = DefaultContextChars
	}

	previewStart := startPos - contextChars/2
	if previewStart < 0 {
		previewStart = 0
	}
	previewEnd := endPos + contextChars/2
	if previewEnd > len(text) {
		previewEnd = len(text)
	}

	window := text[previewStart:previewEnd]

	// Trimming the left edge shifts the preview origin; account for it so the
	// span still points at the matched text.
	trimmed := strings.TrimLeft(window, " \t\r\n")
	previewStart += len(window) - len(trimmed)
	preview := strings.TrimRight(trimmed, " \t\r\n")

	span := [2]int{startPos - previewStart, endPos - previewStart}
	if span[0] < 0 {
		span[0] = 0
	}
	if span[1] > len(preview) {
		span[1] = len(preview)
	}
	if span[0] > span[1] {
		span[0] = span[1]
	}

	return Citation{
		DocID:       docID,
		Page:        page,
		Span:        span,
		TextPreview: preview,
	}
}
