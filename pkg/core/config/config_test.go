package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleCompanies = `PPL:
  name: "Pembina Pipeline Corporation"
  ticker: "PPL"
  cik: "0001546066"
  currency: "CAD"
  fiscal_year_end: "12-31"
  sector: "Energy Infrastructure"
  country: "Canada"
ENB:
  name: "Enbridge Inc."
  ticker: "ENB"
  currency: "CAD"
  fiscal_year_end: "12-31"
  sector: "Energy Infrastructure"
  country: "Canada"
`

const sampleFinancial = `financial_data:
  ebitda: 3450.0
  net_debt: 18750.0
  maintenance_capex: 220.0
  net_income: 1250.0
  shareholder_equity: 16750.0
  interest_expense: 380.0
  total_assets: 36550.0
  shares_outstanding: 572.0
market_assumptions:
  risk_free_rate: 0.04
  market_risk_premium: 0.06
  beta: 0.8
  cost_of_debt: 0.05
  tax_rate: 0.25
  reinvestment_rate: 0.15
  terminal_growth: 0.02
capital_structure:
  debt_weight: 0.4
  equity_weight: 0.6
simulation_defaults:
  ebitda_volatility: 0.1
  beta_volatility: 0.15
  risk_premium_volatility: 0.1
  terminal_growth_volatility: 0.25
  num_simulations: 10000
  confidence_level: 0.95
`

func TestLoadCompanies(t *testing.T) {
	path := writeFile(t, "companies.yaml", sampleCompanies)

	companies, err := LoadCompanies(path)
	if err != nil {
		t.Fatalf("LoadCompanies failed: %v", err)
	}
	if len(companies) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(companies))
	}

	ppl := companies["PPL"]
	if ppl.Name != "Pembina Pipeline Corporation" {
		t.Errorf("name = %q", ppl.Name)
	}
	if ppl.Currency != "CAD" || ppl.Country != "Canada" {
		t.Errorf("unexpected company fields: %+v", ppl)
	}

	registry := companies.CIKRegistry()
	if registry["PPL"] != "0001546066" {
		t.Errorf("CIK registry = %v", registry)
	}
	if _, ok := registry["ENB"]; ok {
		t.Error("companies without a CIK should not appear in the registry")
	}
}

func TestLoadCompaniesMissingFile(t *testing.T) {
	if _, err := LoadCompanies(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFinancialConfig(t *testing.T) {
	path := writeFile(t, "default_financial_inputs.yaml", sampleFinancial)

	cfg, err := LoadFinancialConfig(path)
	if err != nil {
		t.Fatalf("LoadFinancialConfig failed: %v", err)
	}

	if cfg.FinancialData.EBITDA != 3450.0 {
		t.Errorf("ebitda = %v", cfg.FinancialData.EBITDA)
	}
	if cfg.MarketAssumptions.Beta != 0.8 {
		t.Errorf("beta = %v", cfg.MarketAssumptions.Beta)
	}
	if cfg.SimulationDefaults.NumSimulations != 10000 {
		t.Errorf("num_simulations = %v", cfg.SimulationDefaults.NumSimulations)
	}
}

func TestValuationInputs(t *testing.T) {
	path := writeFile(t, "default_financial_inputs.yaml", sampleFinancial)
	cfg, err := LoadFinancialConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	in := cfg.ValuationInputs()
	if in.EBITDA != 3450.0 || in.NetDebt != 18750.0 || in.MaintenanceCapex != 220.0 {
		t.Errorf("core metrics not carried over: %+v", in)
	}
	if in.DebtWeight != 0.4 || in.EquityWeight != 0.6 {
		t.Errorf("capital structure not carried over: %+v", in)
	}
	if in.NetIncome == nil || *in.NetIncome != 1250.0 {
		t.Errorf("net income = %v", in.NetIncome)
	}
	if in.SharesOutstanding == nil || *in.SharesOutstanding != 572.0 {
		t.Errorf("shares outstanding = %v", in.SharesOutstanding)
	}
	// Defaults survive where the config has no say.
	if in.ProjectionYears != 5 {
		t.Errorf("projection years = %v", in.ProjectionYears)
	}
}

func TestValidateConsistency(t *testing.T) {
	path := writeFile(t, "default_financial_inputs.yaml", sampleFinancial)
	cfg, err := LoadFinancialConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	res := cfg.ValidateConsistency()
	if !res.Valid {
		t.Errorf("sample config should be valid, issues: %v", res.Issues)
	}
	// Calculated debt weight 18750/35500 = 0.53 vs configured 0.40.
	if len(res.Warnings) == 0 {
		t.Error("expected a debt weight mismatch warning")
	}
	if math.Abs(res.Metrics["interest_coverage"]-3450.0/380.0) > 1e-9 {
		t.Errorf("interest coverage = %v", res.Metrics["interest_coverage"])
	}
}

func TestValidateConsistencyBadWeights(t *testing.T) {
	cfg := &FinancialConfig{
		FinancialData:    FinancialData{EBITDA: 1000, InterestExpense: 100},
		CapitalStructure: CapitalStructure{DebtWeight: 0.7, EquityWeight: 0.6},
	}

	res := cfg.ValidateConsistency()
	if res.Valid {
		t.Error("weights summing to 1.3 should be invalid")
	}
	if len(res.Issues) != 1 {
		t.Errorf("expected exactly one issue, got %v", res.Issues)
	}
}
