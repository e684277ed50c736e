// Package config loads the YAML configuration that drives the service: the
// tracked company registry and the default financial inputs used by the
// valuation engine. Configuration is always an explicitly constructed object;
// there is no package-level singleton.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// CompanyInfo describes one tracked company.
type CompanyInfo struct {
	Name          string `yaml:"name" json:"name"`
	Ticker        string `yaml:"ticker" json:"ticker"`
	CIK           string `yaml:"cik,omitempty" json:"cik,omitempty"`
	Currency      string `yaml:"currency" json:"currency"`
	FiscalYearEnd string `yaml:"fiscal_year_end" json:"fiscal_year_end"`
	Sector        string `yaml:"sector" json:"sector"`
	Country       string `yaml:"country" json:"country"`
}

// Companies maps ticker -> company info.
type Companies map[string]CompanyInfo

// LoadCompanies reads the company registry from a YAML file.
func LoadCompanies(path string) (Companies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read companies file: %w", err)
	}

	var companies Companies
	if err := yaml.Unmarshal(data, &companies); err != nil {
		return nil, fmt.Errorf("failed to parse companies file %s: %w", path, err)
	}
	return companies, nil
}

// CIKRegistry extracts the ticker -> CIK pairs for companies that declare one,
// in the shape the EDGAR client consumes.
func (c Companies) CIKRegistry() map[string]string {
	registry := make(map[string]string)
	for ticker, info := range c {
		if info.CIK != "" {
			registry[ticker] = info.CIK
		}
	}
	return registry
}

// Tickers returns every tracked ticker.
func (c Companies) Tickers() []string {
	tickers := make([]string, 0, len(c))
	for ticker := range c {
		tickers = append(tickers, ticker)
	}
	return tickers
}
