package ragmark

// Capabilities records which extraction capabilities are available to this
// process. It is constructed once at engine startup and passed explicitly
// into strategy planning and orchestration; core logic never reads ambient
// package state to decide what it can do.
type Capabilities struct {
	// FastText is plain text extraction with font-size heading hints
	// (pure Go, always compiled in).
	FastText bool
	// LayoutAware is structured extraction with per-span font and
	// position data (PDFium via WebAssembly).
	LayoutAware bool
	// TableAware is layout extraction plus vector-line table
	// reconstruction (PDFium via WebAssembly).
	TableAware bool
	// OCR is rasterize-then-recognize extraction for scanned documents
	// (external OCR engine).
	OCR bool
}

// None reports whether no extraction capability is available at all.
func (c Capabilities) None() bool {
	return !c.FastText && !c.LayoutAware && !c.TableAware && !c.OCR
}

// Supports reports whether the capability required by s is available.
func (c Capabilities) Supports(s Strategy) bool {
	switch s {
	case StrategyFastText:
		return c.FastText
	case StrategyLayoutAware:
		return c.LayoutAware
	case StrategyTableAware:
		return c.TableAware
	case StrategyOCRLayout, StrategyOCRFastText:
		return c.OCR
	}
	return false
}
