package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"energy_ic_copilot/pkg/core/ingest"

	"go.uber.org/zap"
)

// ReadDocument loads a filing document as plain text. Plain-text files are
// returned as-is; HTML files are stripped to text. Any other extension yields
// ErrUnsupportedFormat.
func ReadDocument(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read document: %w", err)
		}
		return string(data), nil
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read document: %w", err)
		}
		return ingest.HTMLToText(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ExtractFromFile reads a document and extracts the ticker's KPIs from it.
// The file's base name becomes the citation doc id.
func (e *Extractor) ExtractFromFile(path, ticker string) (map[string]ExtractedKPI, error) {
	content, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(content, filepath.Base(path), ticker)
}

// ExtractFromFilings extracts KPIs from every filing for a ticker in dir
// (files named <ticker>_*.txt, lower-cased). Documents are processed in name
// order and later documents override earlier ones for the same KPI name.
// Failures on individual files are logged and skipped; a missing mapping for
// the ticker fails the whole call.
func (e *Extractor) ExtractFromFilings(dir, ticker string) (map[string]ExtractedKPI, error) {
	if _, ok := e.mappings[ticker]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMappings, ticker)
	}

	paths, err := filepath.Glob(filepath.Join(dir, strings.ToLower(ticker)+"_*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to list filings: %w", err)
	}

	all := make(map[string]ExtractedKPI)
	for _, path := range paths {
		kpis, err := e.ExtractFromFile(path, ticker)
		if err != nil {
			if errors.Is(err, ErrNoMappings) {
				return nil, err
			}
			e.logger.Warn("skipping filing",
				zap.String("path", path), zap.Error(err))
			continue
		}
		for name, kpi := range kpis {
			all[name] = kpi
		}
	}
	return all, nil
}
