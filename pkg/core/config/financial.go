package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"

	"energy_ic_copilot/pkg/core/valuation"
)

// FinancialData holds the default per-company financial snapshot (millions).
type FinancialData struct {
	EBITDA            float64 `yaml:"ebitda" json:"ebitda"`
	NetDebt           float64 `yaml:"net_debt" json:"net_debt"`
	MaintenanceCapex  float64 `yaml:"maintenance_capex" json:"maintenance_capex"`
	NetIncome         float64 `yaml:"net_income" json:"net_income"`
	ShareholderEquity float64 `yaml:"shareholder_equity" json:"shareholder_equity"`
	InterestExpense   float64 `yaml:"interest_expense" json:"interest_expense"`
	TotalAssets       float64 `yaml:"total_assets" json:"total_assets"`
	SharesOutstanding float64 `yaml:"shares_outstanding" json:"shares_outstanding"`
}

// MarketAssumptions are the market-wide valuation assumptions.
type MarketAssumptions struct {
	RiskFreeRate      float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	MarketRiskPremium float64 `yaml:"market_risk_premium" json:"market_risk_premium"`
	Beta              float64 `yaml:"beta" json:"beta"`
	CostOfDebt        float64 `yaml:"cost_of_debt" json:"cost_of_debt"`
	TaxRate           float64 `yaml:"tax_rate" json:"tax_rate"`
	ReinvestmentRate  float64 `yaml:"reinvestment_rate" json:"reinvestment_rate"`
	TerminalGrowth    float64 `yaml:"terminal_growth" json:"terminal_growth"`
}

// CapitalStructure holds the target debt/equity weights.
type CapitalStructure struct {
	DebtWeight   float64 `yaml:"debt_weight" json:"debt_weight"`
	EquityWeight float64 `yaml:"equity_weight" json:"equity_weight"`
}

// SimulationDefaults configure Monte Carlo sensitivity runs.
type SimulationDefaults struct {
	EBITDAVolatility         float64 `yaml:"ebitda_volatility" json:"ebitda_volatility"`
	BetaVolatility           float64 `yaml:"beta_volatility" json:"beta_volatility"`
	RiskPremiumVolatility    float64 `yaml:"risk_premium_volatility" json:"risk_premium_volatility"`
	TerminalGrowthVolatility float64 `yaml:"terminal_growth_volatility" json:"terminal_growth_volatility"`
	NumSimulations           int     `yaml:"num_simulations" json:"num_simulations"`
	ConfidenceLevel          float64 `yaml:"confidence_level" json:"confidence_level"`
}

// FinancialConfig is the default financial inputs document.
type FinancialConfig struct {
	FinancialData      FinancialData      `yaml:"financial_data" json:"financial_data"`
	MarketAssumptions  MarketAssumptions  `yaml:"market_assumptions" json:"market_assumptions"`
	CapitalStructure   CapitalStructure   `yaml:"capital_structure" json:"capital_structure"`
	SimulationDefaults SimulationDefaults `yaml:"simulation_defaults" json:"simulation_defaults"`
	Metadata           map[string]string  `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// LoadFinancialConfig reads the default financial inputs from a YAML file.
func LoadFinancialConfig(path string) (*FinancialConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read financial config: %w", err)
	}

	var cfg FinancialConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse financial config %s: %w", path, err)
	}
	return &cfg, nil
}

// ValuationInputs combines financial data, market assumptions and capital
// structure into a single valuation input set, one source of truth for the
// valuation engine.
func (c *FinancialConfig) ValuationInputs() valuation.Inputs {
	in := valuation.DefaultInputs()

	in.EBITDA = c.FinancialData.EBITDA
	in.NetDebt = c.FinancialData.NetDebt
	in.MaintenanceCapex = c.FinancialData.MaintenanceCapex

	in.TaxRate = c.MarketAssumptions.TaxRate
	in.ReinvestmentRate = c.MarketAssumptions.ReinvestmentRate
	in.RiskFreeRate = c.MarketAssumptions.RiskFreeRate
	in.MarketRiskPremium = c.MarketAssumptions.MarketRiskPremium
	in.Beta = c.MarketAssumptions.Beta
	in.CostOfDebt = c.MarketAssumptions.CostOfDebt
	in.TerminalGrowth = c.MarketAssumptions.TerminalGrowth

	in.DebtWeight = c.CapitalStructure.DebtWeight
	in.EquityWeight = c.CapitalStructure.EquityWeight

	ni := c.FinancialData.NetIncome
	in.NetIncome = &ni
	if c.FinancialData.SharesOutstanding > 0 {
		shares := c.FinancialData.SharesOutstanding
		in.SharesOutstanding = &shares
	}

	return in
}

// ValidationResult reports configuration consistency findings. Issues make
// the config invalid; warnings flag suspicious but usable values.
type ValidationResult struct {
	Valid    bool               `json:"valid"`
	Issues   []string           `json:"issues"`
	Warnings []string           `json:"warnings"`
	Metrics  map[string]float64 `json:"metrics"`
}

// ValidateConsistency checks logical consistency between the financial data
// and the configured capital structure.
func (c *FinancialConfig) ValidateConsistency() ValidationResult {
	res := ValidationResult{
		Issues:   []string{},
		Warnings: []string{},
		Metrics:  map[string]float64{},
	}
	fin := c.FinancialData
	cap := c.CapitalStructure

	totalWeight := cap.DebtWeight + cap.EquityWeight
	if math.Abs(totalWeight-1.0) > 0.01 {
		res.Issues = append(res.Issues,
			fmt.Sprintf("capital structure weights don't sum to 1.0: %.2f", totalWeight))
	}

	if fin.NetDebt+fin.ShareholderEquity != 0 {
		calculated := fin.NetDebt / (fin.NetDebt + fin.ShareholderEquity)
		if math.Abs(calculated-cap.DebtWeight) > 0.01 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("debt weight mismatch: calculated %.2f, configured %.2f", calculated, cap.DebtWeight))
		}
	}

	interestCoverage := math.Inf(1)
	if fin.InterestExpense != 0 {
		interestCoverage = fin.EBITDA / fin.InterestExpense
	}
	if interestCoverage < 3 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("low interest coverage: %.1fx (< 3x)", interestCoverage))
	}

	capexRatio := 0.0
	if fin.EBITDA != 0 {
		capexRatio = fin.MaintenanceCapex / fin.EBITDA
	}
	if capexRatio > 0.15 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("high maintenance capex ratio: %.1f%% (> 15%%)", capexRatio*100))
	}

	res.Metrics["total_capital"] = fin.NetDebt + fin.ShareholderEquity
	if fin.ShareholderEquity != 0 {
		res.Metrics["debt_to_equity"] = fin.NetDebt / fin.ShareholderEquity
	}
	res.Metrics["interest_coverage"] = interestCoverage
	res.Metrics["capex_ratio"] = capexRatio

	res.Valid = len(res.Issues) == 0
	return res
}
