package ragmark

// Strategy identifies one concrete way of turning a document into
// Markdown. Each strategy requires exactly one capability; strategies
// whose capability is absent are skipped during planning, never attempted.
type Strategy string

const (
	// StrategyFastText is plain text extraction with heading heuristics.
	StrategyFastText Strategy = "fast_text"
	// StrategyLayoutAware is structured extraction using per-span font
	// and position data.
	StrategyLayoutAware Strategy = "layout_aware"
	// StrategyTableAware is layout extraction with vector-line table
	// reconstruction.
	StrategyTableAware Strategy = "table_aware"
	// StrategyOCRLayout rasterizes pages and recognizes them with an OCR
	// engine, keeping the engine's block structure.
	StrategyOCRLayout Strategy = "ocr_layout"
	// StrategyOCRFastText rasterizes pages and recognizes them as plain
	// text.
	StrategyOCRFastText Strategy = "ocr_fast_text"
)

// strategyPreference maps a document type to the preferred attempt order.
var strategyPreference = map[DocumentType][]Strategy{
	DocTypeScanned:     {StrategyOCRLayout, StrategyOCRFastText},
	DocTypeTextHeavy:   {StrategyFastText, StrategyLayoutAware, StrategyTableAware},
	DocTypeTableHeavy:  {StrategyTableAware, StrategyLayoutAware, StrategyFastText},
	DocTypeImageHeavy:  {StrategyLayoutAware, StrategyFastText, StrategyTableAware},
	DocTypeMixedLayout: {StrategyLayoutAware, StrategyTableAware, StrategyFastText},
}

// PlanStrategies returns the ordered list of strategies to attempt for a
// document type, most preferred first, with unavailable capabilities
// filtered out. The result contains no duplicates and may be empty when
// nothing usable is available; the orchestrator turns an empty plan into
// a NoCapabilityError.
func PlanStrategies(docType DocumentType, caps Capabilities) []Strategy {
	preferred, ok := strategyPreference[docType]
	if !ok {
		preferred = strategyPreference[DocTypeTextHeavy]
	}

	var plan []Strategy
	seen := map[Strategy]bool{}
	for _, s := range preferred {
		if seen[s] || !caps.Supports(s) {
			continue
		}
		seen[s] = true
		plan = append(plan, s)
	}
	return plan
}

// recommendStrategy returns the analyzer's single-strategy recommendation:
// the head of the availability-filtered plan. Falls back through the
// type's preference order, so the recommendation is always backed by a
// present capability when any capability exists.
func recommendStrategy(docType DocumentType, caps Capabilities) Strategy {
	plan := PlanStrategies(docType, caps)
	if len(plan) == 0 {
		return ""
	}
	return plan[0]
}
