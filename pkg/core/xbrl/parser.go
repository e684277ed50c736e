package xbrl

// CoreMetrics is the normalized financial snapshot parsed from a companyfacts
// document. Monetary fields are in millions of base currency units; shares in
// millions of shares. Nil means the fact was not reported (or, for derived
// fields, that an input was missing).
type CoreMetrics struct {
	EBITDA            *float64 `json:"ebitda"`
	NetDebt           *float64 `json:"net_debt"`
	NetIncome         *float64 `json:"net_income"`
	ShareholderEquity *float64 `json:"shareholder_equity"`
	InterestExpense   *float64 `json:"interest_expense"`
	TotalAssets       *float64 `json:"total_assets"`
	SharesOutstanding *float64 `json:"shares_outstanding"`
	Cash              *float64 `json:"cash"`
	TotalDebt         *float64 `json:"total_debt"`
}

// FactMeta records which reported item a metric came from, for auditability.
type FactMeta struct {
	Form     string  `json:"form,omitempty"`
	End      string  `json:"end,omitempty"`
	Frame    string  `json:"frame,omitempty"`
	Filed    string  `json:"filed,omitempty"`
	Unit     string  `json:"unit"`
	RawValue float64 `json:"raw_value"`
}

// ProvenanceMap maps metric names to the item each was selected from.
// Derived metrics record the provenance of their dominant input.
type ProvenanceMap map[string]*FactMeta

// getFact extracts the best value for a tag in the first preferred unit that
// has data. First tag/unit with any data wins; no merging across tags.
func getFact(facts map[string]map[string]FactConcept, taxonomy, tag string,
	unitsPreference []string, preferQuarterly bool, pref FramePreference) (*float64, *FactItem, string) {

	concept, ok := facts[taxonomy][tag]
	if !ok {
		return nil, nil, ""
	}
	for _, unit := range unitsPreference {
		items := concept.Units[unit]
		if len(items) == 0 {
			continue
		}
		item := SelectBestItem(items, preferQuarterly, pref)
		if item == nil {
			continue
		}
		if v, ok := item.Value(); ok {
			return &v, item, unit
		}
	}
	return nil, nil, ""
}

func toMillions(v *float64) *float64 {
	if v == nil {
		return nil
	}
	m := *v / 1_000_000.0
	return &m
}

// ParseCoreMetrics parses the standardized metric snapshot from a
// companyfacts document. pref steers frame selection for flow metrics only.
func ParseCoreMetrics(cf *CompanyFacts, pref FramePreference) CoreMetrics {
	metrics, _ := ParseCoreMetricsWithMeta(cf, pref)
	return metrics
}

// ParseCoreMetricsWithMeta is ParseCoreMetrics plus per-metric provenance.
func ParseCoreMetricsWithMeta(cf *CompanyFacts, pref FramePreference) (CoreMetrics, ProvenanceMap) {
	var facts map[string]map[string]FactConcept
	if cf != nil {
		facts = cf.Facts
	}

	usd := func(tag string, preferQuarterly bool) (*float64, *FactItem, string) {
		return getFact(facts, "us-gaap", tag, []string{"USD"}, preferQuarterly, pref)
	}

	niV, niItem, niUnit := usd("NetIncomeLoss", true)
	ieV, ieItem, ieUnit := usd("InterestExpense", true)

	eqV, eqItem, eqUnit := usd("StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest", false)
	if eqV == nil {
		eqV, eqItem, eqUnit = usd("StockholdersEquity", false)
	}
	asV, asItem, asUnit := usd("Assets", false)

	dcV, dcItem, dcUnit := usd("DebtCurrent", false)
	ldV, ldItem, ldUnit := usd("LongTermDebtNoncurrent", false)
	if ldV == nil {
		ldV, ldItem, ldUnit = usd("LongTermDebt", false)
	}

	// Total debt is defined only when at least one component was reported;
	// two missing components mean "unknown", not zero.
	var tdV *float64
	if dcV != nil || ldV != nil {
		td := deref(dcV) + deref(ldV)
		tdV = &td
	}
	tdItem, tdUnit := ldItem, ldUnit
	if tdItem == nil {
		tdItem, tdUnit = dcItem, dcUnit
	}

	caV, caItem, caUnit := usd("CashAndCashEquivalentsAtCarryingValue", false)

	// Net debt inherits total debt's nullability; missing cash counts as zero.
	var ndV *float64
	if tdV != nil {
		nd := *tdV - deref(caV)
		ndV = &nd
	}

	oiV, oiItem, oiUnit := usd("OperatingIncomeLoss", true)
	daV, daItem, daUnit := usd("DepreciationDepletionAndAmortization", true)

	// EBITDA proxy requires both inputs; no partial proxy.
	var ebV *float64
	if oiV != nil && daV != nil {
		eb := *oiV + *daV
		ebV = &eb
	}

	shV, shItem, shUnit := getFact(facts, "dei", "EntityCommonStockSharesOutstanding", []string{"shares"}, true, pref)
	if shV == nil {
		shV, shItem, shUnit = getFact(facts, "us-gaap", "CommonStockSharesOutstanding", []string{"shares"}, true, pref)
	}

	metrics := CoreMetrics{
		EBITDA:            toMillions(ebV),
		NetDebt:           toMillions(ndV),
		NetIncome:         toMillions(niV),
		ShareholderEquity: toMillions(eqV),
		InterestExpense:   toMillions(ieV),
		TotalAssets:       toMillions(asV),
		SharesOutstanding: toMillions(shV),
		Cash:              toMillions(caV),
		TotalDebt:         toMillions(tdV),
	}

	meta := func(item *FactItem, unit string, raw *float64) *FactMeta {
		if item == nil || raw == nil {
			return nil
		}
		return &FactMeta{
			Form:     item.Form,
			End:      item.End,
			Frame:    item.Frame,
			Filed:    item.Filed,
			Unit:     unit,
			RawValue: *raw,
		}
	}

	provenance := ProvenanceMap{
		"net_income":         meta(niItem, niUnit, niV),
		"interest_expense":   meta(ieItem, ieUnit, ieV),
		"shareholder_equity": meta(eqItem, eqUnit, eqV),
		"total_assets":       meta(asItem, asUnit, asV),
		"debt_current":       meta(dcItem, dcUnit, dcV),
		"debt_longterm":      meta(ldItem, ldUnit, ldV),
		"total_debt":         meta(tdItem, tdUnit, tdV),
		"cash":               meta(caItem, caUnit, caV),
		"operating_income":   meta(oiItem, oiUnit, oiV),
		"dda":                meta(daItem, daUnit, daV),
		"ebitda":             meta(oiItem, "USD+USD", ebV),
		"shares_outstanding": meta(shItem, shUnit, shV),
	}

	return metrics, provenance
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
