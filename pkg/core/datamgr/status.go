package datamgr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"energy_ic_copilot/pkg/core/extract"
	"energy_ic_copilot/pkg/core/ingest"
	"energy_ic_copilot/pkg/core/xbrl"
)

// CompanyStatus summarizes one company's data freshness.
type CompanyStatus struct {
	HasData         bool   `json:"has_data"`
	FilingDate      string `json:"filing_date,omitempty"`
	FormType        string `json:"form_type,omitempty"`
	LastUpdated     string `json:"last_updated,omitempty"`
	DaysSinceUpdate int    `json:"days_since_update,omitempty"`
	DataQuality     string `json:"data_quality,omitempty"`
	NeedsUpdate     bool   `json:"needs_update"`
}

// DataStatus is the fleet-wide freshness report.
type DataStatus struct {
	TotalCompanies    int                      `json:"total_companies"`
	CompaniesWithData int                      `json:"companies_with_data"`
	LastUpdateCheck   string                   `json:"last_update_check"`
	Companies         map[string]CompanyStatus `json:"companies"`
}

// Status reports data freshness for every tracked company.
func (m *Manager) Status() DataStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := DataStatus{
		TotalCompanies:    len(m.companies),
		CompaniesWithData: len(m.metadata),
		LastUpdateCheck:   time.Now().UTC().Format(time.RFC3339),
		Companies:         map[string]CompanyStatus{},
	}

	for ticker := range m.companies {
		meta, ok := m.metadata[ticker]
		if !ok {
			status.Companies[ticker] = CompanyStatus{NeedsUpdate: true}
			continue
		}
		days := 0
		if last, err := time.Parse(time.RFC3339, meta.LastUpdated); err == nil {
			days = int(time.Since(last).Hours() / 24)
		}
		status.Companies[ticker] = CompanyStatus{
			HasData:         true,
			FilingDate:      meta.FilingDate,
			FormType:        meta.FormType,
			LastUpdated:     meta.LastUpdated,
			DaysSinceUpdate: days,
			DataQuality:     meta.DataQuality,
			NeedsUpdate:     days > UpdateThresholdDays,
		}
	}
	return status
}

// LatestKPIs is the extraction view of a company's latest filing.
type LatestKPIs struct {
	Ticker      string                          `json:"ticker"`
	FilingDate  string                          `json:"filing_date"`
	FormType    string                          `json:"form_type"`
	KPIs        map[string]extract.ExtractedKPI `json:"kpis"`
	ExtractedAt time.Time                       `json:"extracted_at"`
}

// LatestFinancialData downloads the company's latest filing and extracts its
// KPIs on the fly.
func (m *Manager) LatestFinancialData(ctx context.Context, ticker string) (*LatestKPIs, error) {
	if m.extractor == nil {
		return nil, fmt.Errorf("no KPI extractor configured")
	}

	cik, err := m.edgar.LookupCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}

	filing, err := m.edgar.LatestFiling(ctx, cik, "10-Q")
	if err == nil && filing == nil {
		filing, err = m.edgar.LatestFiling(ctx, cik, "10-K")
	}
	if err != nil {
		return nil, err
	}
	if filing == nil {
		return nil, fmt.Errorf("no recent filings for %s", ticker)
	}

	content, err := m.edgar.FetchFilingText(ctx, cik, filing.AccessionNumber, filing.PrimaryDocument)
	if err != nil {
		return nil, err
	}
	content = ingest.ExtractMDNA(content)

	docID := fmt.Sprintf("%s_latest.txt", strings.ToLower(ticker))
	kpis, err := m.extractor.Extract(content, docID, ticker)
	if err != nil {
		return nil, err
	}

	return &LatestKPIs{
		Ticker:      ticker,
		FilingDate:  filing.FilingDate.Format("2006-01-02"),
		FormType:    filing.FormType,
		KPIs:        kpis,
		ExtractedAt: time.Now().UTC(),
	}, nil
}

// XBRLFinancials is the standardized-facts view of a company.
type XBRLFinancials struct {
	Ticker           string               `json:"ticker"`
	CIK              string               `json:"cik"`
	MetricsMillions  xbrl.CoreMetrics     `json:"metrics_millions"`
	Source           string               `json:"source"`
	RetrievedAt      time.Time            `json:"retrieved_at"`
	FactsMeta        xbrl.ProvenanceMap   `json:"facts_meta"`
	PeriodPreference xbrl.FramePreference `json:"period_preference"`
}

// LatestFinancialsXBRL fetches standardized metrics from SEC companyfacts,
// normalized to millions. period maps onto a frame preference for flow
// metrics ("ytd", "qtd", "quarter", "any"). Payloads go through the facts
// cache so repeated parses skip the network.
func (m *Manager) LatestFinancialsXBRL(ctx context.Context, ticker, period string) (*XBRLFinancials, error) {
	cik, err := m.edgar.LookupCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}

	payload, err := m.cache.Get(ctx, cik)
	if err != nil {
		m.logger.Warn("facts cache read failed", zap.String("ticker", ticker), zap.Error(err))
	}
	if payload == nil {
		payload, err = m.facts.FetchRaw(ctx, cik)
		if err != nil {
			return nil, err
		}
		if err := m.cache.Put(ctx, cik, ticker, payload); err != nil {
			m.logger.Warn("facts cache write failed", zap.String("ticker", ticker), zap.Error(err))
		}
	}

	cf, err := xbrl.Decode(payload)
	if err != nil {
		return nil, err
	}

	pref := xbrl.ParseFramePreference(period)
	metrics, meta := xbrl.ParseCoreMetricsWithMeta(cf, pref)

	return &XBRLFinancials{
		Ticker:           ticker,
		CIK:              cik,
		MetricsMillions:  metrics,
		Source:           "SEC XBRL companyfacts",
		RetrievedAt:      time.Now().UTC(),
		FactsMeta:        meta,
		PeriodPreference: pref,
	}, nil
}

// QualityReport assesses extraction completeness for a company.
type QualityReport struct {
	Ticker         string         `json:"ticker"`
	OverallQuality string         `json:"overall_quality"`
	Metrics        map[string]int `json:"metrics"`
	Issues         []string       `json:"issues"`
}

// requiredKPIs are the metrics a usable extraction must surface.
var requiredKPIs = []string{"EBITDA", "NetDebt", "NetIncome"}

// ValidateDataQuality grades a company's latest extraction: excellent needs
// all required metrics plus broad coverage, poor means key metrics missing or
// no data at all.
func (m *Manager) ValidateDataQuality(ctx context.Context, ticker string) QualityReport {
	report := QualityReport{
		Ticker:         ticker,
		OverallQuality: "unknown",
		Metrics:        map[string]int{},
		Issues:         []string{},
	}

	data, err := m.LatestFinancialData(ctx, ticker)
	if err != nil || data == nil {
		report.Issues = append(report.Issues, "no data available")
		report.OverallQuality = "poor"
		return report
	}

	report.Metrics["total_kpis"] = len(data.KPIs)

	found := 0
	for _, name := range requiredKPIs {
		if _, ok := data.KPIs[name]; ok {
			found++
		}
	}
	report.Metrics["required_metrics_found"] = found
	report.Metrics["required_metrics_total"] = len(requiredKPIs)

	switch {
	case found == len(requiredKPIs) && len(data.KPIs) >= 5:
		report.OverallQuality = "excellent"
	case found == len(requiredKPIs):
		report.OverallQuality = "good"
	case found >= 2:
		report.OverallQuality = "fair"
	default:
		report.OverallQuality = "poor"
		report.Issues = append(report.Issues, "missing key financial metrics")
	}

	if filed, err := time.Parse("2006-01-02", data.FilingDate); err == nil {
		daysOld := int(time.Since(filed).Hours() / 24)
		report.Metrics["days_since_filing"] = daysOld
		if daysOld > 90 {
			report.Issues = append(report.Issues, fmt.Sprintf("data is %d days old", daysOld))
			report.OverallQuality = "fair"
		}
	}

	return report
}
