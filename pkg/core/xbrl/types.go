// Package xbrl fetches standardized financial facts from the SEC
// "companyfacts" API and parses core metrics into a normalized snapshot
// (in millions, where applicable).
//
// Notes:
//   - EBITDA is approximated as OperatingIncomeLoss + DepreciationDepletionAndAmortization
//     (a common proxy). Non-GAAP reported EBITDA isn't standardized in XBRL.
//   - Net Debt is computed as Total Debt (current + long-term) minus cash.
//   - Maintenance capex is not available in XBRL; callers source it separately.
package xbrl

import "encoding/json"

// FactItem is one reported value for a tag within one unit system.
type FactItem struct {
	Val   json.Number `json:"val"`
	End   string      `json:"end,omitempty"`   // period end date, "2006-01-02"
	Filed string      `json:"filed,omitempty"` // filing date
	Form  string      `json:"form,omitempty"`  // "10-Q", "10-K", ...
	Frame string      `json:"frame,omitempty"` // e.g. "CY2024Q2YTD"
	FP    string      `json:"fp,omitempty"`    // fiscal period label
	FY    int         `json:"fy,omitempty"`    // fiscal year
}

// Value returns the item's numeric value, or false if it does not parse.
func (f FactItem) Value() (float64, bool) {
	v, err := f.Val.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// FactConcept groups every reported item for one tag, keyed by unit label.
type FactConcept struct {
	Label       string                `json:"label"`
	Description string                `json:"description"`
	Units       map[string][]FactItem `json:"units"`
}

// CompanyFacts is the top-level companyfacts document:
// taxonomy ("us-gaap", "dei") -> tag -> concept.
type CompanyFacts struct {
	CIK        int                               `json:"cik"`
	EntityName string                            `json:"entityName"`
	Facts      map[string]map[string]FactConcept `json:"facts"`
}
