// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package ragmark

import "context"

// Extraction is the successful output of one strategy execution.
type Extraction struct {
	Markdown string
	Metadata map[string]string
}

// ExtractRequest carries everything an extractor may need for one run.
// Extractors must not mutate Analysis.
type ExtractRequest struct {
	// Path is the location of the document on disk.
	Path string
	// Source is the opened structured handle, when one is available.
	// Strategies that need it and receive nil must fail cleanly.
	Source DocumentSource
	// Analysis is the read-only fingerprint produced by Analyze.
	Analysis *DocumentAnalysis
}

// Extractor is one extraction strategy implementation. A nil-error return
// means the attempt produced scoreable output; a non-nil error means the
// orchestrator should move on to the next planned strategy.
type Extractor interface {
	Strategy() Strategy
	Extract(ctx context.Context, req *ExtractRequest) (*Extraction, error)
}

// pageBreakMarker separates pages in extracted output. Kept as a plain
// thematic break so downstream Markdown tooling treats it naturally.
const pageBreakMarker = "\n---\n"

// Heading thresholds relative to the largest font size observed on a
// page. Spans at or above each ratio map to H1/H2/H3 respectively.
const (
	headingH1Ratio = 0.90
	headingH2Ratio = 0.75
	headingH3Ratio = 0.60
)

// headingLevelForSize maps a font size to a Markdown heading level (1-3)
// relative to the page's maximum observed size, or 0 for body text.
func headingLevelForSize(size, pageMax float64) int {
	if pageMax <= 0 {
		return 0
	}
	switch {
	case size >= pageMax*headingH1Ratio:
		return 1
	case size >= pageMax*headingH2Ratio:
		return 2
	case size >= pageMax*headingH3Ratio:
		return 3
	default:
		return 0
	}
}
