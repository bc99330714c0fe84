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
	"regexp"
	"strings"
)

// defaultFigureLimit caps how many figure regions are converted per document.
const defaultFigureLimit = 20

// Confidence tiers for figure descriptions.
const (
	figureHighConfidence = 0.8
	figureMidConfidence  = 0.5
)

const (
	figureMidConfidenceNote = "Some details may be ambiguous."
	figureLowConfidenceNote = "Low confidence extraction - verify against original PDF for critical details."
	defaultFigureTitle      = "Untitled Figure"
)

var (
	reFigureCaption = regexp.MustCompile(`(?:Figure|Fig\.?)\s*(\d+)[:.]?\s*([^\n]+)`)
	reChartCaption  = regexp.MustCompile(`(?:Chart|Graph|Diagram)\s*(\d+)[:.]?\s*([^\n]+)`)
)

// ExtractedFigure is a figure region converted to a text representation.
type ExtractedFigure struct {
	Ref            string
	Page           int // 1-based
	Kind           string
	Confidence     float64
	Title          string
	StructuredData string
	Description    string
}

// ConvertFigures turns detected figure regions into textual figures,
// matching captions from the page text where possible. Pages in regions
// are 0-based; the returned figures report 1-based page numbers.
func ConvertFigures(regions []FigureRegion, pageText func(page int) string, limit int) []ExtractedFigure {
	if limit <= 0 {
		limit = defaultFigureLimit
	}
	if len(regions) > limit {
		regions = regions[:limit]
	}

	figures := make([]ExtractedFigure, 0, len(regions))
	for _, region := range regions {
		fig := ExtractedFigure{
			Ref:        fmt.Sprintf("fig_%d", region.PageIndex+1),
			Page:       region.PageIndex + 1,
			Kind:       region.Kind,
			Confidence: region.Confidence,
			Title:      defaultFigureTitle,
		}
		if pageText != nil {
			if ref, title, ok := matchCaption(pageText(region.PageIndex)); ok {
				fig.Ref = ref
				fig.Title = title
			}
		}
		fig.Description = describeFigure(fig)
		figures = append(figures, fig)
	}
	return figures
}

// matchCaption looks for a "Figure N: ..." or "Chart N: ..." style caption
// and returns a stable reference plus the caption title.
func matchCaption(text string) (ref, title string, ok bool) {
	for _, re := range []*regexp.Regexp{reFigureCaption, reChartCaption} {
		if m := re.FindStringSubmatch(text); m != nil {
			return "fig_" + m[1], strings.TrimSpace(m[2]), true
		}
	}
	return "", "", false
}

func describeFigure(fig ExtractedFigure) string {
	var noun string
	switch fig.Kind {
	case FigureKindChart:
		noun = "a chart"
	case FigureKindDiagram:
		noun = "a diagram"
	case FigureKindTableImage:
		noun = "a table rendered as an image"
	default:
		noun = "an image"
	}
	desc := fmt.Sprintf("This figure on page %d appears to be %s.", fig.Page, noun)
	switch {
	case fig.Confidence >= figureHighConfidence:
		return desc
	case fig.Confidence >= figureMidConfidence:
		return desc + " " + figureMidConfidenceNote
	default:
		return desc + " " + figureLowConfidenceNote
	}
}

// FormatFigures renders extracted figures as a "## Figures" markdown
// section with one <figure> block per figure. Returns "" for no figures.
func FormatFigures(figures []ExtractedFigure) string {
	if len(figures) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Figures\n")
	for _, fig := range figures {
		b.WriteString("\n")
		b.WriteString(formatFigureBlock(fig))
	}
	return b.String()
}

func formatFigureBlock(fig ExtractedFigure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<figure ref=%q page=\"%d\" type=%q confidence=\"%.0f\">\n",
		fig.Ref, fig.Page, fig.Kind, fig.Confidence*100)
	fmt.Fprintf(&b, "**%s**\n\n", fig.Title)
	if fig.StructuredData != "" {
		b.WriteString(fig.StructuredData)
		b.WriteString("\n\n")
	}
	b.WriteString(fig.Description)
	b.WriteString("\n")
	if fig.Confidence < figureMidConfidence {
		fmt.Fprintf(&b, "\n*%s*\n", figureLowConfidenceNote)
	}
	b.WriteString("</figure>\n")
	return b.String()
}
