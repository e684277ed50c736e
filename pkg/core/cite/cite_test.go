package cite

import (
	"strings"
	"testing"
)

func TestNewFromMatchBasic(t *testing.T) {
	text := "The Adjusted EBITDA increased to $3,450 million in Q2 2024."

	c := NewFromMatch("test.pdf", 10, text, 4, 50, 0)

	if c.DocID != "test.pdf" {
		t.Errorf("DocID = %q, want test.pdf", c.DocID)
	}
	if c.Page != 10 {
		t.Errorf("Page = %d, want 10", c.Page)
	}
	if c.Span[0] >= c.Span[1] {
		t.Errorf("span not ordered: %v", c.Span)
	}
	if !strings.Contains(c.TextPreview, "Adjusted EBITDA") {
		t.Errorf("preview missing match text: %q", c.TextPreview)
	}
	if !strings.Contains(c.TextPreview, "$3,450 million") {
		t.Errorf("preview missing value: %q", c.TextPreview)
	}
}

func TestNewFromMatchContextWindow(t *testing.T) {
	long := "According to the financial statements, the company reported Adjusted EBITDA increased to $3,450 million in Q2 2024, which represents a 10% growth from the previous year."

	c := NewFromMatch("financials.pdf", 15, long, 50, 75, 30)

	if !strings.Contains(c.TextPreview, "EBITDA increased") {
		t.Errorf("preview missing context: %q", c.TextPreview)
	}
	if len(c.TextPreview) > 75-50+30 {
		t.Errorf("preview too long: %d chars", len(c.TextPreview))
	}
}

func TestNewFromMatchBoundaries(t *testing.T) {
	text := "EBITDA $1,000"

	start := NewFromMatch("test.pdf", 1, text, 0, 12, 50)
	if start.Span[0] != 0 {
		t.Errorf("span start = %d, want 0", start.Span[0])
	}
	if !strings.Contains(start.TextPreview, "EBITDA") {
		t.Errorf("preview = %q", start.TextPreview)
	}

	end := NewFromMatch("test.pdf", 1, text, 8, 13, 50)
	if end.Span[1] > len(end.TextPreview) {
		t.Errorf("span end %d exceeds preview length %d", end.Span[1], len(end.TextPreview))
	}
	if !strings.Contains(end.TextPreview, "1,000") {
		t.Errorf("preview = %q", end.TextPreview)
	}
}

func TestNewFromMatchExactText(t *testing.T) {
	c := NewFromMatch("test.pdf", 1, "EBITDA", 0, 6, 50)

	if c.TextPreview != "EBITDA" {
		t.Errorf("preview = %q, want EBITDA", c.TextPreview)
	}
	if c.Span != [2]int{0, 6} {
		t.Errorf("span = %v, want [0 6]", c.Span)
	}
}

func TestNewFromMatchLargeContext(t *testing.T) {
	text := "This is a test document with some financial information about EBITDA."

	c := NewFromMatch("test.pdf", 1, text, 62, 68, 1000)

	if !strings.Contains(c.TextPreview, "EBITDA") {
		t.Errorf("preview missing match: %q", c.TextPreview)
	}
	if c.Span[0] < 0 || c.Span[1] > len(c.TextPreview) {
		t.Errorf("span %v out of preview bounds (len %d)", c.Span, len(c.TextPreview))
	}
}

func TestNewFromMatchTrimsWhitespaceKeepingSpanValid(t *testing.T) {
	text := "   \n  Net Debt was $18,750 million   \n "

	c := NewFromMatch("q2.txt", 1, text, 6, 35, 100)

	if strings.HasPrefix(c.TextPreview, " ") || strings.HasSuffix(c.TextPreview, " ") {
		t.Errorf("preview not trimmed: %q", c.TextPreview)
	}
	if c.Span[0] < 0 || c.Span[0] > c.Span[1] || c.Span[1] > len(c.TextPreview) {
		t.Errorf("invalid span %v for preview of length %d", c.Span, len(c.TextPreview))
	}
	got := c.TextPreview[c.Span[0]:c.Span[1]]
	if !strings.Contains(got, "Net Debt") {
		t.Errorf("span text = %q, want to cover the match", got)
	}
}

func TestCitationString(t *testing.T) {
	c := Citation{
		DocID:       "ppl_2024_q2_mda.pdf",
		Page:        17,
		Span:        [2]int{120, 160},
		TextPreview: "Adjusted EBITDA increased to $3,450 million",
	}

	s := c.String()
	if !strings.Contains(s, "ppl_2024_q2_mda.pdf") {
		t.Errorf("String() missing doc id: %q", s)
	}
	if !strings.Contains(s, "p.17") {
		t.Errorf("String() missing page: %q", s)
	}
}

func TestManager(t *testing.T) {
	m := NewManager()
	if len(m.All()) != 0 {
		t.Fatalf("new manager not empty")
	}

	c1 := Citation{DocID: "doc1.pdf", Page: 1, Span: [2]int{0, 10}, TextPreview: "Text 1"}
	c2 := Citation{DocID: "doc2.pdf", Page: 2, Span: [2]int{20, 30}, TextPreview: "Text 2"}
	m.Add("EBITDA", c1)
	m.Add("NetDebt", c2)

	got, ok := m.Get("EBITDA")
	if !ok || got.DocID != "doc1.pdf" {
		t.Errorf("Get(EBITDA) = %v, %v", got, ok)
	}
	if _, ok := m.Get("NONEXISTENT"); ok {
		t.Error("Get for unknown key should report absence")
	}

	all := m.All()
	if len(all) != 2 {
		t.Errorf("All() has %d entries, want 2", len(all))
	}

	// Mutating the returned map must not affect the manager.
	delete(all, "EBITDA")
	if _, ok := m.Get("EBITDA"); !ok {
		t.Error("All() leaked internal state")
	}

	m.Clear()
	if len(m.All()) != 0 {
		t.Error("Clear() left citations behind")
	}
}
