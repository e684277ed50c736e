// Package ingest provides SEC EDGAR API integration for fetching company
// filings and converting them to plain text for KPI extraction.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// SEC EDGAR API endpoints
	SECSubmissionsURL = "https://data.sec.gov/submissions/CIK%s.json"
	SECFilingURL      = "https://www.sec.gov/Archives/edgar/data/%s/%s"
	SECTickerMapURL   = "https://www.sec.gov/files/company_tickers.json"

	// DefaultUserAgent is used when the caller provides none. SEC requires a
	// User-Agent that includes contact information.
	DefaultUserAgent = "EnergyICCopilot/1.0 (admin@energyiccopilot.com)"

	// SEC allows 10 requests per second; stay well under it.
	requestDelay = 150 * time.Millisecond
)

// =============================================================================
// SEC EDGAR DATA TYPES
// =============================================================================

// CompanySubmissions represents the top-level company submission response.
type CompanySubmissions struct {
	CIK            string   `json:"cik"`
	EntityType     string   `json:"entityType"`
	SIC            string   `json:"sic"`
	SICDescription string   `json:"sicDescription"`
	Name           string   `json:"name"`
	Tickers        []string `json:"tickers"`
	Exchanges      []string `json:"exchanges"`
	Filings        struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds arrays of filing attributes (parallel arrays).
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0000922224-24-000012"
	FilingDate      []string `json:"filingDate"`      // e.g., "2024-08-06"
	ReportDate      []string `json:"reportDate"`      // fiscal period end
	Form            []string `json:"form"`            // "10-K", "10-Q", "8-K"
	PrimaryDocument []string `json:"primaryDocument"` // filename
	Size            []int    `json:"size"`            // bytes
}

// Filing represents a single SEC filing (denormalized from parallel arrays).
type Filing struct {
	AccessionNumber string    `json:"accession_number"`
	FilingDate      time.Time `json:"filing_date"`
	ReportDate      time.Time `json:"report_date"`
	FormType        string    `json:"form_type"`
	PrimaryDocument string    `json:"primary_document"`
	Size            int       `json:"size"`
	URL             string    `json:"url"` // constructed download URL
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// EDGARClient handles SEC EDGAR API requests with polite rate limiting.
// A registry of known ticker -> CIK pairs (from companies.yaml) avoids a
// network round-trip for tracked companies; unknown tickers fall back to the
// SEC ticker mapping file.
type EDGARClient struct {
	httpClient *http.Client
	userAgent  string
	ciks       map[string]string

	mu          sync.Mutex
	lastRequest time.Time
}

// NewEDGARClient creates a new SEC EDGAR API client. ciks may be nil.
func NewEDGARClient(userAgent string, ciks map[string]string) *EDGARClient {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	registry := make(map[string]string, len(ciks))
	for ticker, cik := range ciks {
		registry[strings.ToUpper(ticker)] = cik
	}
	return &EDGARClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
		ciks:       registry,
	}
}

// throttle spaces requests out per SEC fair-access guidelines.
func (c *EDGARClient) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < requestDelay {
		time.Sleep(requestDelay - elapsed)
	}
	c.lastRequest = time.Now()
}

func (c *EDGARClient) get(ctx context.Context, url, accept string) ([]byte, error) {
	c.throttle()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SEC API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SEC API returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// LookupCIK resolves a ticker to its 10-digit CIK. The local registry wins;
// unknown tickers are resolved against the SEC ticker mapping file.
func (c *EDGARClient) LookupCIK(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(ticker)
	if cik, ok := c.ciks[ticker]; ok {
		return PadCIK(cik), nil
	}

	body, err := c.get(ctx, SECTickerMapURL, "application/json")
	if err != nil {
		return "", fmt.Errorf("failed to fetch ticker mapping: %w", err)
	}

	// Response structure: { "0": {"cik_str": 320193, "ticker": "AAPL", ...}, ... }
	var mapping map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &mapping); err != nil {
		return "", fmt.Errorf("failed to parse ticker mapping: %w", err)
	}

	for _, entry := range mapping {
		if strings.EqualFold(entry.Ticker, ticker) {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
}

// FetchSubmissions retrieves company submission data from SEC EDGAR.
// CIK is zero-padded to 10 digits automatically.
func (c *EDGARClient) FetchSubmissions(ctx context.Context, cik string) (*CompanySubmissions, error) {
	body, err := c.get(ctx, fmt.Sprintf(SECSubmissionsURL, PadCIK(cik)), "application/json")
	if err != nil {
		return nil, err
	}

	var info CompanySubmissions
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse SEC response: %w", err)
	}
	return &info, nil
}

// FilterFilings extracts filings from a submissions document, filtered by
// form type. formTypes nil means all types; limit 0 means no limit.
func FilterFilings(info *CompanySubmissions, formTypes []string, limit int) []Filing {
	recent := info.Filings.Recent
	filings := make([]Filing, 0)

	formTypeSet := make(map[string]bool)
	for _, ft := range formTypes {
		formTypeSet[ft] = true
	}

	for i := range recent.AccessionNumber {
		if len(formTypes) > 0 && !formTypeSet[recent.Form[i]] {
			continue
		}

		filingDate, _ := time.Parse("2006-01-02", recent.FilingDate[i])
		reportDate, _ := time.Parse("2006-01-02", recent.ReportDate[i])

		// Download URL format:
		// https://www.sec.gov/Archives/edgar/data/{cik}/{accession-no-dashes}/{document}
		accessionNoDashes := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		downloadURL := fmt.Sprintf(SECFilingURL, info.CIK, accessionNoDashes+"/"+recent.PrimaryDocument[i])

		filings = append(filings, Filing{
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      filingDate,
			ReportDate:      reportDate,
			FormType:        recent.Form[i],
			PrimaryDocument: recent.PrimaryDocument[i],
			Size:            recent.Size[i],
			URL:             downloadURL,
		})

		if limit > 0 && len(filings) >= limit {
			break
		}
	}

	return filings
}

// LatestFiling fetches the most recent filing of the given form type for a
// CIK, or nil when none exists.
func (c *EDGARClient) LatestFiling(ctx context.Context, cik, formType string) (*Filing, error) {
	info, err := c.FetchSubmissions(ctx, cik)
	if err != nil {
		return nil, err
	}
	filings := FilterFilings(info, []string{formType}, 1)
	if len(filings) == 0 {
		return nil, nil
	}
	return &filings[0], nil
}

// FetchFilingText downloads a filing's primary document and converts it to
// plain text.
func (c *EDGARClient) FetchFilingText(ctx context.Context, cik, accessionNumber, document string) (string, error) {
	if accessionNumber == "" || document == "" {
		return "", fmt.Errorf("accession number and document name are required")
	}

	accessionNoDashes := strings.ReplaceAll(accessionNumber, "-", "")
	cikNumeric := strings.TrimLeft(PadCIK(cik), "0")
	url := fmt.Sprintf(SECFilingURL, cikNumeric, accessionNoDashes+"/"+document)

	body, err := c.get(ctx, url, "")
	if err != nil {
		return "", fmt.Errorf("failed to download filing: %w", err)
	}
	return HTMLToText(string(body)), nil
}

// PadCIK zero-pads a CIK to the 10 digits SEC URLs expect.
func PadCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
}
