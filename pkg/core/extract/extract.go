// Package extract implements the pattern-based KPI extraction engine for
// financial documents. Extraction is driven by per-ticker regex mappings
// (see Mappings) and every extracted value carries a citation back to the
// source text.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"energy_ic_copilot/pkg/core/cite"

	"go.uber.org/zap"
)

// ExtractedKPI is a single extraction result with its audit trail.
type ExtractedKPI struct {
	Value    float64       `json:"value"`
	Unit     string        `json:"unit"`
	Citation cite.Citation `json:"citation"`
}

var (
	// ErrNoMappings means the ticker has no entry in the mappings
	// configuration. Fatal for the extraction call; no partial results.
	ErrNoMappings = errors.New("no KPI mappings for ticker")

	// ErrUnsupportedFormat means a document file has an extension the reader
	// does not handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Extractor extracts KPIs from document text using ticker-specific patterns.
// It holds no mutable state beyond its configuration and is safe for
// concurrent use.
type Extractor struct {
	mappings Mappings
	logger   *zap.Logger
}

// NewExtractor creates an extractor over the given mappings. A nil logger
// disables logging.
func NewExtractor(m Mappings, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{mappings: m, logger: logger}
}

// NewExtractorFromFile loads mappings from a YAML file and wraps them in an
// extractor.
func NewExtractorFromFile(path string, logger *zap.Logger) (*Extractor, error) {
	m, err := LoadMappings(path)
	if err != nil {
		return nil, err
	}
	return NewExtractor(m, logger), nil
}

// Mappings returns the extractor's configuration.
func (e *Extractor) Mappings() Mappings {
	return e.mappings
}

// Extract runs every configured KPI pattern for ticker against content and
// returns the successfully extracted KPIs keyed by name. docID is recorded in
// citations (typically the source file name). A KPI absent from the result
// simply means no pattern matched; that is not an error. An unknown ticker
// returns ErrNoMappings.
func (e *Extractor) Extract(content, docID, ticker string) (map[string]ExtractedKPI, error) {
	kpis, ok := e.mappings[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMappings, ticker)
	}

	// KPI names sorted for reproducible pattern evaluation and log order.
	names := make([]string, 0, len(kpis))
	for name := range kpis {
		names = append(names, name)
	}
	sort.Strings(names)

	extracted := make(map[string]ExtractedKPI)
	for _, name := range names {
		if kpi, ok := e.extractKPI(content, docID, name, kpis[name]); ok {
			extracted[name] = kpi
		}
	}
	return extracted, nil
}

// searchState tracks the preference tie-break per KPI: while SEARCHING, any
// preferred match is accepted immediately; the first non-preferred match moves
// to FALLBACK_HELD and the pattern loop keeps looking for a preferred one.
type searchState int

const (
	stateSearching searchState = iota
	stateFallbackHeld
)

func (e *Extractor) extractKPI(content, docID, name string, cfg KPIConfig) (ExtractedKPI, bool) {
	state := stateSearching
	var fallback ExtractedKPI

	for _, pattern := range cfg.Patterns {
		value, citation, matchText, ok := e.matchPattern(content, pattern, docID)
		if !ok {
			continue
		}

		kpi := ExtractedKPI{Value: value, Unit: cfg.Unit, Citation: citation}

		// No preference configured: first value wins. With a preference, a
		// match containing the preferred substring is accepted immediately.
		if cfg.Prefer == "" || strings.Contains(matchText, cfg.Prefer) {
			return kpi, true
		}

		if state == stateSearching {
			fallback = kpi
			state = stateFallbackHeld
		}
	}

	if state == stateFallbackHeld {
		return fallback, true
	}
	return ExtractedKPI{}, false
}

// matchPattern applies one pattern to the document. A pattern that fails to
// compile is logged and treated as a non-match so a single bad mapping entry
// cannot abort the extraction.
func (e *Extractor) matchPattern(content, pattern, docID string) (float64, cite.Citation, string, bool) {
	re, err := regexp.Compile("(?im)" + pattern)
	if err != nil {
		e.logger.Warn("skipping KPI pattern that failed to compile",
			zap.String("pattern", pattern), zap.Error(err))
		return 0, cite.Citation{}, "", false
	}

	loc := re.FindStringSubmatchIndex(content)
	if loc == nil {
		return 0, cite.Citation{}, "", false
	}
	matchText := content[loc[0]:loc[1]]

	// Prefer an explicit capture group; fall back to scanning the whole match
	// text when there is no group or the group does not parse.
	var value *float64
	if re.NumSubexp() > 0 && len(loc) >= 4 && loc[2] >= 0 {
		raw := currencyCommas.Replace(content[loc[2]:loc[3]])
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			value = &v
		} else {
			value = ExtractNumericValue(matchText)
		}
	} else {
		value = ExtractNumericValue(matchText)
	}
	if value == nil {
		return 0, cite.Citation{}, "", false
	}

	// The strip_commas normalization hint needs no extra work: currency
	// symbols and commas are removed before parsing.
	scaled := *value * ScaleMultiplier(matchText)

	// Page detection is not modeled; filings are treated as single-page text.
	citation := cite.NewFromMatch(docID, 1, content, loc[0], loc[1], cite.DefaultContextChars)

	return scaled, citation, matchText, true
}
