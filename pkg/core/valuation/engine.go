package valuation

import "math"

// DCFComponents breaks out the discounted cash flow calculation.
type DCFComponents struct {
	ProjectedFCFFs []float64 `json:"projected_fcffs"` // present values per projection year
	TerminalValue  float64   `json:"terminal_value"`  // present value of terminal value
	WACC           float64   `json:"wacc"`
}

// Results holds the full output of a valuation run. Enhanced analytics are
// nil when the inputs they need were not provided.
type Results struct {
	// Core valuation
	EPV                float64 `json:"epv"`       // enterprise present value (millions)
	DCFValue           float64 `json:"dcf_value"` // discounted cash flow value (millions)
	WACC               float64 `json:"wacc"`
	CostOfEquity       float64 `json:"cost_of_equity"`
	CostOfDebtAfterTax float64 `json:"cost_of_debt_after_tax"`

	// Key ratios
	EVEBITDARatio      float64 `json:"ev_ebitda_ratio"`
	NetDebtEBITDARatio float64 `json:"net_debt_ebitda_ratio"`

	// Enhanced analytics (optional)
	ROIC             *float64 `json:"roic,omitempty"`
	ROE              *float64 `json:"roe,omitempty"`
	PayoutRatio      *float64 `json:"payout_ratio,omitempty"`
	DividendYield    *float64 `json:"dividend_yield,omitempty"`
	DebtToEquity     *float64 `json:"debt_to_equity,omitempty"`
	InterestCoverage *float64 `json:"interest_coverage,omitempty"`

	// Scenario analysis
	ScenarioEPV *float64 `json:"scenario_epv,omitempty"`
	ScenarioDCF *float64 `json:"scenario_dcf,omitempty"`

	DCFComponents DCFComponents `json:"dcf_components"`
}

// CalculateWACC computes the Weighted Average Cost of Capital.
//
// WACC = (E/V * Re) + (D/V * Rd * (1-Tc)) with Re from CAPM:
// Re = Rf + Beta * ERP.
func CalculateWACC(in Inputs) float64 {
	ke := in.RiskFreeRate + in.Beta*in.MarketRiskPremium
	kd := in.CostOfDebt * (1 - in.TaxRate)
	return in.EquityWeight*ke + in.DebtWeight*kd
}

// CalculateEPV computes Enterprise Present Value with the single-stage model:
//
//	Normalized EBIT = EBITDA - maintenance capex
//	NOPAT           = EBIT * (1 - tax rate)
//	FCF             = NOPAT * (1 - reinvestment rate)
//	EPV             = FCF / WACC
//
// A non-positive WACC yields +Inf rather than a division blow-up.
func CalculateEPV(in Inputs) float64 {
	normalizedEBIT := in.EBITDA - in.MaintenanceCapex
	nopat := normalizedEBIT * (1 - in.TaxRate)
	fcf := nopat * (1 - in.ReinvestmentRate)

	wacc := CalculateWACC(in)
	if wacc <= 0 {
		return math.Inf(1)
	}
	return fcf / wacc
}

// CalculateDCF projects free cash flows to the firm over the explicit horizon
// plus a Gordon-growth terminal value, discounted at WACC.
func CalculateDCF(in Inputs) (float64, DCFComponents) {
	wacc := CalculateWACC(in)
	if wacc <= 0 {
		return math.Inf(1), DCFComponents{WACC: wacc}
	}

	// Simplified FCFF: after-tax normalized EBIT plus the debt tax shield.
	normalizedEBIT := in.EBITDA - in.MaintenanceCapex
	taxShield := in.NetDebt * in.CostOfDebt * in.TaxRate
	fcff := normalizedEBIT*(1-in.TaxRate) + taxShield

	projected := make([]float64, 0, in.ProjectionYears)
	sum := 0.0
	for year := 1; year <= in.ProjectionYears; year++ {
		grown := fcff * math.Pow(1+in.TerminalGrowth, float64(year))
		pv := grown / math.Pow(1+wacc, float64(year))
		projected = append(projected, pv)
		sum += pv
	}

	terminal := fcff * (1 + in.TerminalGrowth) / (wacc - in.TerminalGrowth)
	pvTerminal := terminal / math.Pow(1+wacc, float64(in.ProjectionYears))

	return sum + pvTerminal, DCFComponents{
		ProjectedFCFFs: projected,
		TerminalValue:  pvTerminal,
		WACC:           wacc,
	}
}

// ApplyScenario returns a copy of the inputs with scenario adjustments
// applied: rate shifts hit both the risk-free rate and the cost of debt,
// throughput and uplift both scale EBITDA.
func ApplyScenario(in Inputs, sc Scenario) Inputs {
	adjusted := in

	rateChange := float64(sc.RateBpsChange) / 10000.0
	adjusted.RiskFreeRate += rateChange
	adjusted.CostOfDebt += rateChange

	adjusted.EBITDA *= 1 + sc.ThroughputPctChange/100.0
	adjusted.EBITDA *= 1 + sc.EBITDAUplift

	return adjusted
}

// CalculateValuation runs the complete base-case valuation, the enhanced
// analytics the inputs allow for, and optionally a scenario overlay.
func CalculateValuation(in Inputs, sc *Scenario) Results {
	wacc := CalculateWACC(in)
	epv := CalculateEPV(in)
	dcfValue, components := CalculateDCF(in)

	res := Results{
		EPV:                epv,
		DCFValue:           dcfValue,
		WACC:               wacc,
		CostOfEquity:       in.RiskFreeRate + in.Beta*in.MarketRiskPremium,
		CostOfDebtAfterTax: in.CostOfDebt * (1 - in.TaxRate),
		DCFComponents:      components,
	}

	if in.EBITDA != 0 {
		res.EVEBITDARatio = epv / in.EBITDA
		res.NetDebtEBITDARatio = in.NetDebt / in.EBITDA
	}

	// ROIC = NOPAT / total capital, with total capital approximated by EV.
	if in.NetIncome != nil && in.EBITDA != 0 && epv != 0 && !math.IsInf(epv, 0) {
		nopat := in.EBITDA * (1 - in.TaxRate)
		roic := nopat / epv
		res.ROIC = &roic
	}

	// ROE against implied book equity per share (EV minus net debt).
	if in.NetIncome != nil && in.SharesOutstanding != nil && *in.SharesOutstanding != 0 {
		impliedEquity := (epv - in.NetDebt) / *in.SharesOutstanding
		if impliedEquity != 0 && !math.IsInf(impliedEquity, 0) {
			roe := *in.NetIncome / impliedEquity
			res.ROE = &roe
		}
	}

	if in.DividendPerShare != nil && in.NetIncome != nil && *in.NetIncome != 0 && in.SharesOutstanding != nil {
		payout := (*in.DividendPerShare * *in.SharesOutstanding) / *in.NetIncome
		res.PayoutRatio = &payout
	}

	if in.DividendPerShare != nil && in.SharePrice != nil && *in.SharePrice != 0 {
		yield := *in.DividendPerShare / *in.SharePrice
		res.DividendYield = &yield
	}

	if in.SharesOutstanding != nil && in.SharePrice != nil {
		marketEquity := *in.SharesOutstanding * *in.SharePrice
		if marketEquity != 0 {
			dte := in.NetDebt / marketEquity
			res.DebtToEquity = &dte
		}
	}

	// Interest expense approximated as cost of debt on net debt.
	if in.EBITDA != 0 && in.NetDebt != 0 && in.CostOfDebt != 0 {
		interestExpense := in.CostOfDebt * in.NetDebt
		coverage := in.EBITDA / interestExpense
		res.InterestCoverage = &coverage
	}

	if sc != nil {
		adjusted := ApplyScenario(in, *sc)
		scenarioEPV := CalculateEPV(adjusted)
		scenarioDCF, _ := CalculateDCF(adjusted)
		res.ScenarioEPV = &scenarioEPV
		res.ScenarioDCF = &scenarioDCF
	}

	return res
}
