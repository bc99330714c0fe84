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
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// layoutLine is a line of text built from grouped spans.
type layoutLine struct {
	spans    []TextSpan
	top      float64
	bottom   float64
	left     float64
	fontSize float64 // dominant font size on this line
	fontName string  // dominant font name on this line
}

func (l *layoutLine) text() string {
	var b strings.Builder
	for _, sp := range l.spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

// layoutExtractor renders per-span font and position data into Markdown:
// headings from font size, bold and italic from font names, paragraph
// breaks from vertical gaps.
type layoutExtractor struct{}

func (e *layoutExtractor) Strategy() Strategy { return StrategyLayoutAware }

func (e *layoutExtractor) Extract(ctx context.Context, req *ExtractRequest) (*Extraction, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("layout_aware: no document source")
	}

	var pages []string
	for i := 0; i < req.Source.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layout, err := req.Source.Layout(i)
		if err != nil {
			continue
		}
		md := renderLayoutPage(layout.Spans)
		if strings.TrimSpace(md) == "" {
			continue
		}
		pages = append(pages, strings.TrimSpace(md))
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("layout_aware: no structured text content")
	}

	return &Extraction{
		Markdown: strings.Join(pages, "\n"+pageBreakMarker+"\n") + "\n",
		Metadata: req.Source.Metadata(),
	}, nil
}

// renderLayoutPage converts one page's spans into Markdown.
func renderLayoutPage(spans []TextSpan) string {
	lines := groupSpansIntoLines(spans)
	if len(lines) == 0 {
		return ""
	}

	bodySize := 0.0
	pageMax := 0.0
	{
		sizeCounts := map[float64]int{}
		for _, l := range lines {
			for _, sp := range l.spans {
				rounded := math.Round(sp.FontSize*10) / 10
				sizeCounts[rounded] += len(strings.TrimSpace(sp.Text))
				if sp.FontSize > pageMax {
					pageMax = sp.FontSize
				}
			}
		}
		maxCount := 0
		for size, count := range sizeCounts {
			if count > maxCount {
				maxCount = count
				bodySize = size
			}
		}
	}

	var md strings.Builder
	prevWasHeading := false

	for i, line := range lines {
		rawText := strings.TrimSpace(line.text())
		if rawText == "" {
			continue
		}

		level := 0
		if line.fontSize > bodySize*1.05 && len(rawText) < maxHeadingLineLen {
			level = headingLevelForSize(line.fontSize, pageMax)
		}
		// Standalone short bold lines at body size read as subheadings
		// ("References", "Acknowledgements").
		if level == 0 && line.fontSize >= bodySize && allSpansBold(line.spans) && len(rawText) < 80 {
			level = 3
		}

		lineMarkdown := strings.TrimSpace(renderLineSpans(line.spans, bodySize))
		if lineMarkdown == "" {
			continue
		}

		if level > 0 {
			if md.Len() > 0 {
				md.WriteString("\n")
			}
			md.WriteString(strings.Repeat("#", level))
			md.WriteString(" ")
			md.WriteString(stripInlineMarkers(lineMarkdown))
			md.WriteString("\n\n")
			prevWasHeading = true
		} else {
			if i > 0 && !prevWasHeading {
				prevLine := lines[i-1]
				gap := prevLine.bottom - line.top
				lineHeight := line.top - line.bottom
				if lineHeight <= 0 {
					lineHeight = bodySize
				}
				// A gap beyond ~1.5x line height reads as a paragraph break.
				if gap > lineHeight*1.5 {
					md.WriteString("\n")
				}
			}
			md.WriteString(lineMarkdown)
			md.WriteString("\n")
			prevWasHeading = false
		}
	}

	return md.String()
}

// groupSpansIntoLines groups spans by vertical position into lines sorted
// top-to-bottom, with spans within each line sorted left-to-right.
func groupSpansIntoLines(spans []TextSpan) []layoutLine {
	var filtered []TextSpan
	for _, sp := range spans {
		if strings.TrimSpace(sp.Text) != "" {
			filtered = append(filtered, sp)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	sort.Slice(filtered, func(i, j int) bool {
		if math.Abs(filtered[i].Bounds.Y1-filtered[j].Bounds.Y1) < 2 {
			return filtered[i].Bounds.X0 < filtered[j].Bounds.X0
		}
		return filtered[i].Bounds.Y1 > filtered[j].Bounds.Y1
	})

	var lines []layoutLine
	for _, sp := range filtered {
		merged := false
		for i := range lines {
			if math.Abs(lines[i].top-sp.Bounds.Y1) < 3 {
				lines[i].spans = append(lines[i].spans, sp)
				if sp.Bounds.X0 < lines[i].left {
					lines[i].left = sp.Bounds.X0
				}
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, layoutLine{
				spans:  []TextSpan{sp},
				top:    sp.Bounds.Y1,
				bottom: sp.Bounds.Y0,
				left:   sp.Bounds.X0,
			})
		}
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].top > lines[j].top })

	for i := range lines {
		sort.Slice(lines[i].spans, func(a, b int) bool {
			return lines[i].spans[a].Bounds.X0 < lines[i].spans[b].Bounds.X0
		})
		lines[i].fontSize, lines[i].fontName = dominantLineFont(lines[i].spans)
	}
	return lines
}

// dominantLineFont returns the font size and name covering the most text.
func dominantLineFont(spans []TextSpan) (float64, string) {
	type fontKey struct {
		size float64
		name string
	}
	counts := map[fontKey]int{}
	for _, sp := range spans {
		k := fontKey{size: math.Round(sp.FontSize*10) / 10, name: sp.FontName}
		counts[k] += len(sp.Text)
	}
	var bestKey fontKey
	bestCount := 0
	for k, c := range counts {
		if c > bestCount {
			bestCount = c
			bestKey = k
		}
	}
	return bestKey.size, bestKey.name
}

// renderLineSpans renders a line's spans with inline bold/italic/code
// markers, merging adjacent spans that share formatting.
func renderLineSpans(spans []TextSpan, bodySize float64) string {
	type fmtRun struct {
		text   string
		bold   bool
		italic bool
		mono   bool
	}

	var runs []fmtRun
	for _, sp := range spans {
		text := sp.Text
		if strings.TrimSpace(text) == "" {
			continue
		}
		// Superscript footnote markers: tiny standalone text.
		if sp.FontSize > 0 && bodySize > 0 && sp.FontSize < bodySize*0.6 && len(strings.TrimSpace(text)) <= 3 {
			continue
		}

		run := fmtRun{
			text:   text,
			bold:   sp.Bold,
			italic: fontIsItalic(sp.FontName),
			mono:   fontIsMono(sp.FontName),
		}
		if len(runs) > 0 {
			prev := &runs[len(runs)-1]
			if prev.bold == run.bold && prev.italic == run.italic && prev.mono == run.mono {
				prev.text += text
				continue
			}
		}
		runs = append(runs, run)
	}

	var b strings.Builder
	for _, run := range runs {
		text := run.text
		switch {
		case run.mono:
			b.WriteString("`")
			b.WriteString(strings.TrimSpace(text))
			b.WriteString("`")
			if strings.HasSuffix(text, " ") {
				b.WriteString(" ")
			}
		case run.bold || run.italic:
			marker := "*"
			if run.bold && run.italic {
				marker = "***"
			} else if run.bold {
				marker = "**"
			}
			trimmed := strings.TrimRight(text, " ")
			b.WriteString(marker)
			b.WriteString(trimmed)
			b.WriteString(marker)
			if len(text) > len(trimmed) {
				b.WriteString(" ")
			}
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

// stripInlineMarkers removes inline markers for use inside headings.
func stripInlineMarkers(s string) string {
	s = strings.ReplaceAll(s, "***", "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}

func allSpansBold(spans []TextSpan) bool {
	for _, sp := range spans {
		if strings.TrimSpace(sp.Text) == "" {
			continue
		}
		if !sp.Bold {
			return false
		}
	}
	return true
}

// fontIsBold reports whether the font name suggests bold weight.
func fontIsBold(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "bold") ||
		strings.Contains(lower, "medi") ||
		strings.HasSuffix(lower, "bd")
}

// fontIsItalic reports whether the font name suggests italic style.
func fontIsItalic(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "ital") ||
		strings.Contains(lower, "obli") ||
		strings.HasSuffix(lower, "-it")
}

// fontIsMono reports whether the font name suggests a monospace font.
func fontIsMono(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "mono") ||
		strings.Contains(lower, "courier") ||
		strings.Contains(lower, "consola") ||
		strings.HasPrefix(lower, "cmtt") ||
		strings.Contains(lower, "typewriter")
}
