// Package datamgr manages automatic updates of financial data from the
// latest SEC filings. It ties together the EDGAR client, the XBRL
// companyfacts pipeline, the facts cache and the KPI extractor.
package datamgr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"energy_ic_copilot/pkg/core/config"
	"energy_ic_copilot/pkg/core/extract"
	"energy_ic_copilot/pkg/core/ingest"
	"energy_ic_copilot/pkg/core/store"
	"energy_ic_copilot/pkg/core/xbrl"
)

// UpdateThresholdDays is how stale a company's data may get before
// CheckForUpdates reports it needs refreshing.
const UpdateThresholdDays = 30

// FilingMetadata records the last processed filing per company.
type FilingMetadata struct {
	Ticker          string `json:"ticker"`
	FormType        string `json:"form_type"`
	FilingDate      string `json:"filing_date"`
	AccessionNumber string `json:"accession_number"`
	LastUpdated     string `json:"last_updated"`
	DataQuality     string `json:"data_quality"` // excellent, good, fair, poor
}

// UpdateResult reports the outcome of one company update run.
type UpdateResult struct {
	ID               string `json:"id"` // unique run id
	Ticker           string `json:"ticker"`
	Success          bool   `json:"success"`
	FilingDate       string `json:"filing_date,omitempty"`
	MetricsExtracted int    `json:"metrics_extracted"`
	ErrorMessage     string `json:"error_message,omitempty"`
	LastUpdated      string `json:"last_updated"`
}

// Manager coordinates filing downloads, KPI extraction and metadata tracking.
type Manager struct {
	dataDir      string
	filingsDir   string
	metadataFile string

	edgar     *ingest.EDGARClient
	facts     *xbrl.Client
	cache     *store.FactsCache
	snapshots *store.SnapshotStore // nil disables snapshot persistence
	extractor *extract.Extractor   // nil disables KPI extraction
	companies config.Companies
	logger    *zap.Logger

	mu       sync.Mutex
	metadata map[string]FilingMetadata
}

// Options configure a Manager. Zero-value fields get working defaults.
type Options struct {
	DataDir   string
	UserAgent string
	Companies config.Companies
	Extractor *extract.Extractor
	Cache     *store.FactsCache
	Snapshots *store.SnapshotStore
	Logger    *zap.Logger
}

// NewManager creates a data manager rooted at opts.DataDir.
func NewManager(opts Options) (*Manager, error) {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cache == nil {
		opts.Cache = store.NewFactsCache(nil, filepath.Join(opts.DataDir, "cache"), 0)
	}

	filingsDir := filepath.Join(opts.DataDir, "filings")
	if err := os.MkdirAll(filingsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create filings directory: %w", err)
	}

	m := &Manager{
		dataDir:      opts.DataDir,
		filingsDir:   filingsDir,
		metadataFile: filepath.Join(opts.DataDir, "filing_metadata.json"),
		edgar:        ingest.NewEDGARClient(opts.UserAgent, opts.Companies.CIKRegistry()),
		facts:        xbrl.NewClient(opts.UserAgent),
		cache:        opts.Cache,
		snapshots:    opts.Snapshots,
		extractor:    opts.Extractor,
		companies:    opts.Companies,
		logger:       opts.Logger,
		metadata:     map[string]FilingMetadata{},
	}
	m.loadMetadata()
	return m, nil
}

func (m *Manager) loadMetadata() {
	data, err := os.ReadFile(m.metadataFile)
	if err != nil {
		return
	}
	var meta map[string]FilingMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		m.logger.Error("failed to load filing metadata", zap.Error(err))
		return
	}
	m.metadata = meta
}

func (m *Manager) saveMetadata() {
	data, err := json.MarshalIndent(m.metadata, "", "  ")
	if err != nil {
		m.logger.Error("failed to encode filing metadata", zap.Error(err))
		return
	}
	if err := os.WriteFile(m.metadataFile, data, 0o644); err != nil {
		m.logger.Error("failed to save filing metadata", zap.Error(err))
	}
}

// CheckForUpdates reports whether a company's data is older than the
// threshold (or has never been fetched).
func (m *Manager) CheckForUpdates(ticker string, daysThreshold int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta, ok := m.metadata[ticker]
	if !ok {
		return true
	}
	last, err := time.Parse(time.RFC3339, meta.LastUpdated)
	if err != nil {
		return true
	}
	return time.Since(last) >= time.Duration(daysThreshold)*24*time.Hour
}

// UpdateCompanyData refreshes one company from its latest 10-Q (or 10-K)
// filing. All failures are reported in the result, never panicked or
// propagated, so batch callers can keep going.
func (m *Manager) UpdateCompanyData(ctx context.Context, ticker string, force bool) UpdateResult {
	now := time.Now().UTC().Format(time.RFC3339)
	result := UpdateResult{ID: uuid.NewString(), Ticker: ticker, LastUpdated: now}

	m.logger.Info("updating company data", zap.String("ticker", ticker), zap.String("run_id", result.ID))

	if !force && !m.CheckForUpdates(ticker, UpdateThresholdDays) {
		m.mu.Lock()
		result.FilingDate = m.metadata[ticker].FilingDate
		m.mu.Unlock()
		result.Success = true
		result.ErrorMessage = "data is current"
		return result
	}

	cik, err := m.edgar.LookupCIK(ctx, ticker)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	filing, err := m.edgar.LatestFiling(ctx, cik, "10-Q")
	if err == nil && filing == nil {
		filing, err = m.edgar.LatestFiling(ctx, cik, "10-K")
	}
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("filing lookup failed: %v", err)
		return result
	}
	if filing == nil {
		result.ErrorMessage = "no recent filings found"
		return result
	}
	result.FilingDate = filing.FilingDate.Format("2006-01-02")

	content, err := m.edgar.FetchFilingText(ctx, cik, filing.AccessionNumber, filing.PrimaryDocument)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to download filing content: %v", err)
		return result
	}
	// The MD&A section carries the prose the KPI patterns target.
	content = ingest.ExtractMDNA(content)

	metricsExtracted := 0
	if m.extractor != nil {
		docID := fmt.Sprintf("%s_%s.txt", strings.ToLower(ticker), filing.AccessionNumber)
		kpis, err := m.extractor.Extract(content, docID, ticker)
		if err != nil {
			m.logger.Warn("KPI extraction failed",
				zap.String("ticker", ticker), zap.Error(err))
		} else {
			metricsExtracted = len(kpis)
			m.persistSnapshot(ctx, ticker, docID, kpis)
		}

		path := filepath.Join(m.filingsDir, docID)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			m.logger.Warn("failed to persist filing text",
				zap.String("path", path), zap.Error(err))
		}
	}

	quality := "good"
	if metricsExtracted > 5 {
		quality = "excellent"
	}

	m.mu.Lock()
	m.metadata[ticker] = FilingMetadata{
		Ticker:          ticker,
		FormType:        filing.FormType,
		FilingDate:      result.FilingDate,
		AccessionNumber: filing.AccessionNumber,
		LastUpdated:     now,
		DataQuality:     quality,
	}
	m.saveMetadata()
	m.mu.Unlock()

	result.Success = true
	result.MetricsExtracted = metricsExtracted
	return result
}

// persistSnapshot stores an extracted KPI set so it survives restarts.
// Persistence failures are logged, never fatal to the update run.
func (m *Manager) persistSnapshot(ctx context.Context, ticker, docID string, kpis map[string]extract.ExtractedKPI) {
	if m.snapshots == nil || len(kpis) == 0 {
		return
	}
	payload, err := json.Marshal(kpis)
	if err != nil {
		m.logger.Warn("failed to encode KPI snapshot",
			zap.String("ticker", ticker), zap.Error(err))
		return
	}
	if err := m.snapshots.Put(ctx, ticker, docID, payload); err != nil {
		m.logger.Warn("failed to persist KPI snapshot",
			zap.String("ticker", ticker), zap.Error(err))
	}
}

// UpdateAll refreshes every tracked company. Per-ticker failures are isolated
// in their own results.
func (m *Manager) UpdateAll(ctx context.Context, force bool) []UpdateResult {
	results := make([]UpdateResult, 0, len(m.companies))
	for _, ticker := range m.companies.Tickers() {
		results = append(results, m.UpdateCompanyData(ctx, ticker, force))
	}
	return results
}
