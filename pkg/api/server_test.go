package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"energy_ic_copilot/pkg/core/config"
	"energy_ic_copilot/pkg/core/extract"
	"energy_ic_copilot/pkg/core/valuation"
)

const companiesYAML = `PPL:
  name: "Pembina Pipeline Corporation"
  ticker: "PPL"
  currency: "CAD"
  fiscal_year_end: "12-31"
  sector: "Energy Infrastructure"
  country: "Canada"
`

func testHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	dir := t.TempDir()

	companiesPath := filepath.Join(dir, "companies.yaml")
	if err := os.WriteFile(companiesPath, []byte(companiesYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	filingsDir := filepath.Join(dir, "filings")
	if err := os.Mkdir(filingsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	filing := "Adjusted EBITDA increased to $3,450 million"
	if err := os.WriteFile(filepath.Join(filingsDir, "ppl_q2_2024.txt"), []byte(filing), 0o644); err != nil {
		t.Fatal(err)
	}

	mappings := extract.Mappings{
		"PPL": {
			"EBITDA": {
				Patterns: []string{`Adjusted EBITDA increased to \$?([0-9,]+) million`},
				Unit:     "CAD millions",
			},
		},
	}

	h := NewHandler(Options{
		CompaniesPath: companiesPath,
		FilingsDir:    filingsDir,
		Extractor:     extract.NewExtractor(mappings, nil),
	})
	return h, dir
}

func doRequest(t *testing.T, h *Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := testHandler(t)

	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("responses should carry a request id")
	}

	rec = doRequest(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", rec.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	files := health["data_files"].(map[string]any)
	if files["companies"] != "exists" {
		t.Errorf("companies file should report as existing: %v", files)
	}
	if files["mappings"] != "missing" {
		t.Errorf("unset mappings path should report missing: %v", files)
	}
}

func TestCompaniesEndpoints(t *testing.T) {
	h, _ := testHandler(t)

	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/companies", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /companies = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "Pembina") {
		t.Errorf("body missing company: %s", rec.Body)
	}

	rec = doRequest(t, h, httptest.NewRequest(http.MethodGet, "/companies/PPL", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /companies/PPL = %d", rec.Code)
	}

	rec = doRequest(t, h, httptest.NewRequest(http.MethodGet, "/companies/XOM", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown ticker should 404, got %d", rec.Code)
	}
}

func TestKPIsEndpoint(t *testing.T) {
	h, _ := testHandler(t)

	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/kpis/PPL", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /kpis/PPL = %d: %s", rec.Code, rec.Body)
	}

	var summary KPISummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	kpi, ok := summary.KPIs["EBITDA"]
	if !ok {
		t.Fatalf("EBITDA missing from %s", rec.Body)
	}
	if kpi.Value != 3450.0 {
		t.Errorf("value = %v", kpi.Value)
	}
	if kpi.Citation.DocID != "ppl_q2_2024.txt" {
		t.Errorf("citation doc = %q", kpi.Citation.DocID)
	}

	rec = doRequest(t, h, httptest.NewRequest(http.MethodGet, "/kpis/XOM", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unmapped ticker should 404, got %d", rec.Code)
	}
}

func TestIngestEndpoint(t *testing.T) {
	h, _ := testHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "ppl_update.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("Adjusted EBITDA increased to $3,600 million")); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/ingest?ticker=PPL", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := doRequest(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /ingest = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "3600") {
		t.Errorf("extracted value missing: %s", rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "ppl_update.txt") {
		t.Errorf("doc id missing: %s", rec.Body)
	}
}

func TestIngestRequiresTicker(t *testing.T) {
	h, _ := testHandler(t)

	rec := doRequest(t, h, httptest.NewRequest(http.MethodPost, "/ingest", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing ticker should 400, got %d", rec.Code)
	}
}

func TestMappingsEndpoint(t *testing.T) {
	h, _ := testHandler(t)

	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/mappings/PPL", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /mappings/PPL = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Adjusted EBITDA") {
		t.Errorf("patterns missing: %s", rec.Body)
	}

	rec = doRequest(t, h, httptest.NewRequest(http.MethodGet, "/mappings/XOM", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown ticker should 404, got %d", rec.Code)
	}
}

func TestValuationEndpoint(t *testing.T) {
	h, _ := testHandler(t)

	payload, err := json.Marshal(ValuationRequest{
		Ticker: "PPL",
		Inputs: valuation.SampleInputs(),
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/valuation/PPL", bytes.NewReader(payload))
	rec := doRequest(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /valuation/PPL = %d: %s", rec.Code, rec.Body)
	}

	var results valuation.Results
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatal(err)
	}
	if results.EPV <= 0 || results.WACC <= 0 {
		t.Errorf("suspicious valuation: %+v", results)
	}
}

func TestValuationDefaultsEndpoint(t *testing.T) {
	h, _ := testHandler(t)

	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/valuation/defaults", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("missing financial config should 503, got %d", rec.Code)
	}

	h.financial = &config.FinancialConfig{
		FinancialData: config.FinancialData{
			EBITDA:            3450.0,
			NetDebt:           18750.0,
			MaintenanceCapex:  220.0,
			NetIncome:         1250.0,
			SharesOutstanding: 572.0,
		},
		MarketAssumptions: config.MarketAssumptions{
			RiskFreeRate:      0.04,
			MarketRiskPremium: 0.06,
			Beta:              0.8,
			CostOfDebt:        0.05,
			TaxRate:           0.25,
			ReinvestmentRate:  0.15,
			TerminalGrowth:    0.02,
		},
		CapitalStructure: config.CapitalStructure{DebtWeight: 0.4, EquityWeight: 0.6},
	}

	rec = doRequest(t, h, httptest.NewRequest(http.MethodGet, "/valuation/defaults", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /valuation/defaults = %d: %s", rec.Code, rec.Body)
	}
	var in valuation.Inputs
	if err := json.Unmarshal(rec.Body.Bytes(), &in); err != nil {
		t.Fatal(err)
	}
	if in.EBITDA != 3450.0 {
		t.Errorf("ebitda = %v", in.EBITDA)
	}
	if in.SharesOutstanding == nil || *in.SharesOutstanding != 572.0 {
		t.Errorf("shares outstanding not carried over: %+v", in.SharesOutstanding)
	}
}

func TestValuationTickerMismatch(t *testing.T) {
	h, _ := testHandler(t)

	payload, _ := json.Marshal(ValuationRequest{Ticker: "ENB", Inputs: valuation.SampleInputs()})
	req := httptest.NewRequest(http.MethodPost, "/valuation/PPL", bytes.NewReader(payload))

	rec := doRequest(t, h, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("ticker mismatch should 400, got %d", rec.Code)
	}
}

func TestFactsEndpointWithoutManager(t *testing.T) {
	h, _ := testHandler(t)

	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/facts/PPL", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("missing manager should 503, got %d", rec.Code)
	}
}

func TestSetExtractorHotSwap(t *testing.T) {
	h, _ := testHandler(t)

	h.SetExtractor(extract.NewExtractor(extract.Mappings{
		"PPL": {
			"NetDebt": {Patterns: []string{`net debt of \$?([0-9,]+) million`}, Unit: "CAD millions"},
		},
	}, nil))

	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/mappings/PPL", nil))
	if !strings.Contains(rec.Body.String(), "net debt") {
		t.Errorf("swapped mappings not served: %s", rec.Body)
	}
	if strings.Contains(rec.Body.String(), "Adjusted EBITDA") {
		t.Error("old mappings still served after swap")
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := testHandler(t)

	rec := doRequest(t, h, httptest.NewRequest(http.MethodOptions, "/companies", nil))
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("preflight response missing CORS headers")
	}
}
