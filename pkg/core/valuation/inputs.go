// Package valuation implements enterprise valuation models for energy
// infrastructure companies: EPV (Enterprise Present Value), DCF with terminal
// value, WACC, leverage ratios and scenario analysis.
package valuation

// Inputs holds the financial metrics and assumptions for a valuation run.
// Monetary amounts are in millions. Optional analytics fields are pointers;
// nil disables the metrics that need them.
type Inputs struct {
	// Core financial metrics (required)
	EBITDA           float64 `json:"ebitda"`
	NetDebt          float64 `json:"net_debt"`
	MaintenanceCapex float64 `json:"maintenance_capex"`

	// Tax and reinvestment assumptions
	TaxRate          float64 `json:"tax_rate"`
	ReinvestmentRate float64 `json:"reinvestment_rate"`

	// Equity and dividend metrics (optional, enable enhanced analytics)
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"` // millions of shares
	DividendPerShare  *float64 `json:"dividend_per_share,omitempty"`
	SharePrice        *float64 `json:"share_price,omitempty"`
	NetIncome         *float64 `json:"net_income,omitempty"`

	// WACC components
	RiskFreeRate      float64 `json:"risk_free_rate"`      // typically 10-year Treasury yield
	MarketRiskPremium float64 `json:"market_risk_premium"` // equity risk premium
	Beta              float64 `json:"beta"`
	CostOfDebt        float64 `json:"cost_of_debt"` // pre-tax
	DebtWeight        float64 `json:"debt_weight"`
	EquityWeight      float64 `json:"equity_weight"`

	// DCF parameters
	TerminalGrowth  float64 `json:"terminal_growth"`
	ProjectionYears int     `json:"projection_years"`
}

// Scenario defines stress-test adjustments applied on top of base inputs.
type Scenario struct {
	RateBpsChange       int     `json:"rate_bps_change"`       // +/- basis points (e.g. +200 = +2%)
	ThroughputPctChange float64 `json:"throughput_pct_change"` // +/- percent (e.g. -5 = -5%)
	EBITDAUplift        float64 `json:"ebitda_uplift"`         // fractional uplift/drag (e.g. 0.02 = +2%)
}

// DefaultInputs returns the standard assumption set for energy infrastructure
// names. Callers overwrite the core metrics before running a valuation.
func DefaultInputs() Inputs {
	return Inputs{
		TaxRate:           0.25,
		ReinvestmentRate:  0.15,
		RiskFreeRate:      0.04,
		MarketRiskPremium: 0.06,
		Beta:              0.8,
		CostOfDebt:        0.05,
		DebtWeight:        0.4,
		EquityWeight:      0.6,
		TerminalGrowth:    0.02,
		ProjectionYears:   5,
	}
}

// SampleInputs returns a representative pipeline operator profile, used in
// tests and demo endpoints.
func SampleInputs() Inputs {
	in := DefaultInputs()
	in.EBITDA = 3450.0          // $3.45B
	in.NetDebt = 18750.0        // $18.75B
	in.MaintenanceCapex = 220.0 // $220M
	return in
}
