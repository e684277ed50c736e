package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Whole-word scale markers. Word boundaries matter: "tons" must not read
	// as "thousand", "bnp" must not read as "bn".
	billionRe  = regexp.MustCompile(`(?i)\bbillion(s)?\b|\bbn\b`)
	thousandRe = regexp.MustCompile(`(?i)\bthousand(s)?\b`)
	millionRe  = regexp.MustCompile(`(?i)\bmillion(s)?\b|\bmm\b|\(\$?mm\)|\$mm\b`)

	numberRe       = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	currencyCommas = strings.NewReplacer("$", "", ",", "")
)

// MinKPIValue is the floor below which a bare number is assumed to be a year,
// page number, or footnote marker rather than a KPI figure.
const MinKPIValue = 100

// ScaleMultiplier inspects the text surrounding a matched numeric token and
// returns the factor that converts it to millions: billions scale by 1000,
// thousands by 0.001, everything else (including explicit millions, per the
// mappings convention) passes through unchanged.
func ScaleMultiplier(text string) float64 {
	if billionRe.MatchString(text) {
		return 1000.0
	}
	if thousandRe.MatchString(text) {
		return 0.001
	}
	if millionRe.MatchString(text) {
		return 1.0
	}
	return 1.0
}

// ExtractNumericValue scans free text for the most plausible KPI figure after
// stripping currency symbols and commas. Candidates below MinKPIValue are
// discarded and the largest survivor wins. Returns nil when nothing qualifies.
//
// The largest-wins rule is a heuristic, not a guarantee: when a match window
// holds several qualifying figures (a prior-year comparative, say) it can pick
// the wrong one. Known limitation, pinned by tests.
func ExtractNumericValue(text string) *float64 {
	cleaned := currencyCommas.Replace(text)

	var best *float64
	for _, m := range numberRe.FindAllString(cleaned, -1) {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || v < MinKPIValue {
			continue
		}
		if best == nil || v > *best {
			val := v
			best = &val
		}
	}
	return best
}
