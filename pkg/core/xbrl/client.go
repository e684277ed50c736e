package xbrl

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

// CompanyFactsURL is the SEC XBRL companyfacts endpoint.
const CompanyFactsURL = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"

const requestDelay = 150 * time.Millisecond

// Client fetches companyfacts documents from SEC EDGAR.
type Client struct {
	httpClient *http.Client
	userAgent  string

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a companyfacts client. SEC requires a User-Agent with
// contact information; an empty userAgent gets a sensible default.
func NewClient(userAgent string) *Client {
	if userAgent == "" {
		userAgent = "EnergyICCopilot/1.0 (admin@energyiccopilot.com)"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
	}
}

func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < requestDelay {
		time.Sleep(requestDelay - elapsed)
	}
	c.lastRequest = time.Now()
}

// FetchRaw downloads the companyfacts JSON payload for a CIK without
// decoding it, so callers can cache the raw document.
func (c *Client) FetchRaw(ctx context.Context, cik string) ([]byte, error) {
	c.throttle()

	url := fmt.Sprintf(CompanyFactsURL, padCIK(cik))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("companyfacts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("companyfacts API returned status %d for CIK %s", resp.StatusCode, cik)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read companyfacts response: %w", err)
	}
	return body, nil
}

// FetchCompanyFacts downloads and decodes the companyfacts document for a CIK.
func (c *Client) FetchCompanyFacts(ctx context.Context, cik string) (*CompanyFacts, error) {
	body, err := c.FetchRaw(ctx, cik)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// Decode parses a raw companyfacts JSON payload.
func Decode(data []byte) (*CompanyFacts, error) {
	var cf CompanyFacts
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse companyfacts document: %w", err)
	}
	return &cf, nil
}

func padCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
}
