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

import (
	"fmt"
	"math"
)

// DocumentType is the coarse structural classification of a document,
// used to choose the order in which extraction strategies are attempted.
type DocumentType string

const (
	// DocTypeTextHeavy covers books and articles: mostly running text.
	DocTypeTextHeavy DocumentType = "text_heavy"
	// DocTypeTableHeavy covers financial reports and data sheets.
	DocTypeTableHeavy DocumentType = "table_heavy"
	// DocTypeMixedLayout covers whitepapers mixing text, tables and figures.
	DocTypeMixedLayout DocumentType = "mixed_layout"
	// DocTypeImageHeavy covers presentations and image-rich documents.
	DocTypeImageHeavy DocumentType = "image_heavy"
	// DocTypeScanned covers documents without a usable text layer.
	DocTypeScanned DocumentType = "scanned"
)

// FigureKind classifies a detected non-text region.
const (
	FigureKindChart      = "chart"
	FigureKindDiagram    = "diagram"
	FigureKindImage      = "image"
	FigureKindTableImage = "table_image"
)

// FigureRegion is one detected non-text visual region on a page. Regions
// are produced during analysis and consumed, never mutated, by the
// figure-to-text converter.
type FigureRegion struct {
	PageIndex  int
	Bounds     Rect
	Kind       string
	HasText    bool
	Confidence float64
}

// DocumentAnalysis is an immutable snapshot of one document's structural
// properties, produced once per conversion run and read-only afterward.
type DocumentAnalysis struct {
	HasTextLayer        bool
	PageCount           int
	TextDensity         float64 // average characters per page
	TableCount          int     // pages with table-like line grids
	FigureCount         int
	MultiColumn         bool
	FontCount           int
	DocumentType        DocumentType
	RecommendedStrategy Strategy
	Figures             []FigureRegion
	TotalChars          int
	Metadata            map[string]string
}

// Analyzer tuning parameters.
const (
	// minTextLayerDensity is the chars-per-page floor below which a
	// document is considered to have no usable text layer.
	minTextLayerDensity = 100.0
	// lineAxisTolerance is how far a segment may deviate from an axis
	// and still count as horizontal or vertical.
	lineAxisTolerance = 2.0
	// tableLineThreshold is the per-page count of horizontal and of
	// vertical segments above which the page counts as holding a table.
	tableLineThreshold = 5
	// figureMinDimension filters decorative glyphs: both sides of an
	// image region must exceed it to count as a figure.
	figureMinDimension = 100.0
	// columnGapThreshold is the minimum horizontal gap between two
	// vertically overlapping text blocks that signals columns.
	columnGapThreshold = 50.0
	// multiColumnPageShare is the fraction of sampled pages that must
	// trigger column detection for the document to count as multi-column.
	multiColumnPageShare = 0.3
	// imageHeavyPageShare and tableHeavyPageShare drive classification.
	imageHeavyPageShare = 0.5
	tableHeavyPageShare = 0.3
	// defaultFigureConfidence is assigned to size-filtered image regions;
	// analysis has no stronger signal about what the image holds.
	defaultFigureConfidence = 0.7
)

// Analyze inspects an opened document and produces its structural
// fingerprint and classification. Per-page text, line and image data is
// read for every page; the expensive font/layout inspection runs only on
// a bounded sample (first page, quartiles, last page).
//
// Analyze fails only when the source itself is unreadable. Per-page
// anomalies degrade gracefully: a page whose geometry or layout cannot be
// read simply contributes nothing to the corresponding counters.
func Analyze(src DocumentSource, caps Capabilities) (*DocumentAnalysis, error) {
	if src == nil {
		return nil, fmt.Errorf("analyze: nil document source")
	}

	pageCount := src.PageCount()
	if pageCount <= 0 {
		return nil, fmt.Errorf("analyze: document has no pages")
	}

	sample := samplePageIndices(pageCount)

	var (
		totalChars       int
		tablePages       int
		figures          []FigureRegion
		fonts            = map[string]struct{}{}
		multiColumnPages int
	)

	for i := 0; i < pageCount; i++ {
		text, err := src.Text(i)
		if err == nil {
			totalChars += len([]rune(text))
		}

		geo, err := src.Geometry(i)
		if err == nil {
			h, v := countAxisAlignedLines(geo.Lines)
			if h > tableLineThreshold && v > tableLineThreshold {
				tablePages++
			}
			for _, img := range geo.Images {
				if img.Width() > figureMinDimension && img.Height() > figureMinDimension {
					figures = append(figures, FigureRegion{
						PageIndex:  i,
						Bounds:     img,
						Kind:       FigureKindImage,
						HasText:    false,
						Confidence: defaultFigureConfidence,
					})
				}
			}
		}

		if _, sampled := sample[i]; !sampled {
			continue
		}

		layout, err := src.Layout(i)
		if err != nil {
			continue
		}
		for _, span := range layout.Spans {
			if span.FontName != "" {
				fonts[span.FontName] = struct{}{}
			}
		}
		if pageHasColumns(layout.Blocks) {
			multiColumnPages++
		}
	}

	textDensity := float64(totalChars) / float64(pageCount)
	hasTextLayer := textDensity > minTextLayerDensity

	analysis := &DocumentAnalysis{
		HasTextLayer: hasTextLayer,
		PageCount:    pageCount,
		TextDensity:  textDensity,
		TableCount:   tablePages,
		FigureCount:  len(figures),
		MultiColumn:  float64(multiColumnPages) > float64(len(sample))*multiColumnPageShare,
		FontCount:    len(fonts),
		Figures:      figures,
		TotalChars:   totalChars,
		Metadata:     src.Metadata(),
	}
	if analysis.Metadata == nil {
		analysis.Metadata = map[string]string{}
	}

	analysis.DocumentType = classify(analysis)
	analysis.RecommendedStrategy = recommendStrategy(analysis.DocumentType, caps)

	return analysis, nil
}

// classify assigns a document type in fixed priority order: scanned,
// image-heavy, table-heavy, mixed, text-heavy.
func classify(a *DocumentAnalysis) DocumentType {
	pages := float64(a.PageCount)
	switch {
	case !a.HasTextLayer && a.FigureCount > 0:
		return DocTypeScanned
	case float64(a.FigureCount) > pages*imageHeavyPageShare:
		return DocTypeImageHeavy
	case float64(a.TableCount) > pages*tableHeavyPageShare:
		return DocTypeTableHeavy
	case a.TableCount > 0 || a.FigureCount > 0:
		return DocTypeMixedLayout
	default:
		return DocTypeTextHeavy
	}
}

// samplePageIndices picks first, quartile and last pages: at most five
// distinct indices, deterministic for a given page count.
func samplePageIndices(pageCount int) map[int]struct{} {
	sample := map[int]struct{}{}
	for _, i := range []int{0, pageCount / 4, pageCount / 2, 3 * pageCount / 4, pageCount - 1} {
		if i >= 0 && i < pageCount {
			sample[i] = struct{}{}
		}
	}
	return sample
}

// countAxisAlignedLines counts near-horizontal and near-vertical segments.
func countAxisAlignedLines(lines []LineSegment) (horizontal, vertical int) {
	for _, l := range lines {
		switch {
		case math.Abs(l.Y0-l.Y1) < lineAxisTolerance:
			horizontal++
		case math.Abs(l.X0-l.X1) < lineAxisTolerance:
			vertical++
		}
	}
	return horizontal, vertical
}

// pageHasColumns reports whether any pair of text blocks overlaps
// vertically while being separated horizontally by more than the column
// gap, in either direction.
func pageHasColumns(blocks []Rect) bool {
	if len(blocks) <= 2 {
		return false
	}
	for i, b1 := range blocks {
		for _, b2 := range blocks[i+1:] {
			yOverlap := b1.Y0 < b2.Y1 && b2.Y0 < b1.Y1
			xSeparate := b1.X1 < b2.X0-columnGapThreshold || b2.X1 < b1.X0-columnGapThreshold
			if yOverlap && xSeparate {
				return true
			}
		}
	}
	return false
}
