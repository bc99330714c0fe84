package ragmark

import (
	"log/slog"
	"net/http"
)

// Option configures a Converter instance.
type Option func(*Converter)

// WithLogger sets the structured logger used for conversion progress.
// The default discards nothing and writes to the default slog handler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithQualityThreshold overrides the default quality threshold for
// non-critical conversions.
func WithQualityThreshold(threshold float64) Option {
	return func(c *Converter) {
		c.qualityThreshold = threshold
	}
}

// WithFigureLimit caps how many figure regions are converted per document.
func WithFigureLimit(limit int) Option {
	return func(c *Converter) {
		c.figureLimit = limit
	}
}

// WithHTTPClient sets the client used for URL and feed conversions.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Converter) {
		c.httpClient = client
	}
}

// WithOCREngine replaces the default tesseract-based OCR engine.
func WithOCREngine(engine OCREngine) Option {
	return func(c *Converter) {
		c.ocrEngine = engine
	}
}

// WithCapabilities overrides capability detection. Intended for tests and
// for callers that must pin down which strategies may run.
func WithCapabilities(caps Capabilities) Option {
	return func(c *Converter) {
		capsCopy := caps
		c.capsOverride = &capsCopy
	}
}
