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
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// fastTextSource is a pure-Go DocumentSource. It carries no vector
// geometry, so documents opened through it classify on text alone; it
// exists so conversion still works when the PDFium runtime is missing.
type fastTextSource struct {
	reader *pdf.Reader
}

func openFastTextSource(path string) (*fastTextSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return &fastTextSource{reader: r}, nil
}

func (s *fastTextSource) PageCount() int { return s.reader.NumPage() }

func (s *fastTextSource) Text(i int) (string, error) {
	page := s.reader.Page(i + 1)
	if page.V.IsNull() {
		return "", nil
	}
	return extractRowText(page), nil
}

// Geometry is always empty: the pure-Go reader exposes no vector data.
func (s *fastTextSource) Geometry(i int) (PageGeometry, error) {
	return PageGeometry{}, nil
}

func (s *fastTextSource) Layout(i int) (PageLayout, error) {
	page := s.reader.Page(i + 1)
	if page.V.IsNull() {
		return PageLayout{}, nil
	}
	spans := spansFromContent(page)
	layout := PageLayout{Spans: spans}
	for _, sp := range spans {
		layout.Blocks = append(layout.Blocks, sp.Bounds)
	}
	return layout, nil
}

func (s *fastTextSource) Metadata() map[string]string {
	meta := map[string]string{}
	defer func() {
		// The underlying reader panics on some malformed trailers.
		_ = recover()
	}()
	info := s.reader.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}
	for _, tag := range []string{"Title", "Author", "Subject", "Creator", "Producer", "CreationDate"} {
		v := info.Key(tag)
		if v.IsNull() {
			continue
		}
		if s := v.RawString(); s != "" {
			meta[tag] = s
		}
	}
	return meta
}

func (s *fastTextSource) Close() error { return nil }

// extractRowText extracts a page's text using row grouping with word
// boundary detection, falling back to position-based assembly.
func extractRowText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var result strings.Builder
		for _, row := range rows {
			var lineText strings.Builder
			prevWasEmpty := false
			for _, word := range row.Content {
				s := word.S
				if s == "" {
					prevWasEmpty = true
					continue
				}
				if lineText.Len() > 0 && prevWasEmpty {
					last := lineText.String()
					if last[len(last)-1] != ' ' {
						lineText.WriteString(" ")
					}
				}
				lineText.WriteString(s)
				prevWasEmpty = false
			}
			text := strings.TrimSpace(lineText.String())
			if text != "" {
				result.WriteString(text)
				result.WriteString("\n")
			}
		}
		if strings.TrimSpace(result.String()) != "" {
			return result.String()
		}
	}

	var b strings.Builder
	for _, sp := range spansFromContent(page) {
		b.WriteString(sp.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// spansFromContent groups the page's character-level text elements into
// line-level spans with position and font data.
func spansFromContent(page pdf.Page) []TextSpan {
	content := page.Content()
	if len(content.Text) == 0 {
		return nil
	}

	type element struct {
		x, y, size float64
		font       string
		text       string
	}
	var elements []element
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		elements = append(elements, element{x: t.X, y: t.Y, size: t.FontSize, font: t.Font, text: t.S})
	}
	if len(elements) == 0 {
		return nil
	}

	yTolerance := 3.0
	if elements[0].size > 0 {
		yTolerance = elements[0].size * 0.3
	}

	type line struct {
		y        float64
		elements []element
	}
	var lines []line
	for _, elem := range elements {
		merged := false
		for i := range lines {
			if abs(lines[i].y-elem.y) < yTolerance {
				lines[i].elements = append(lines[i].elements, elem)
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, line{y: elem.y, elements: []element{elem}})
		}
	}

	// Top of page first: PDF y grows upward.
	sort.Slice(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var spans []TextSpan
	for _, ln := range lines {
		sort.Slice(ln.elements, func(i, j int) bool { return ln.elements[i].x < ln.elements[j].x })

		var text strings.Builder
		var lastX, lastWidth float64
		minX, maxX := ln.elements[0].x, ln.elements[0].x
		size, font := ln.elements[0].size, ln.elements[0].font
		first := true

		for _, elem := range ln.elements {
			if !first {
				gap := elem.x - (lastX + lastWidth)
				threshold := elem.size * 0.2
				if threshold < 1.0 {
					threshold = 1.0
				}
				if gap > threshold {
					text.WriteString(" ")
				}
			}
			text.WriteString(elem.text)
			lastX = elem.x
			lastWidth = float64(len([]rune(elem.text))) * elem.size * 0.55
			if elem.x > maxX {
				maxX = elem.x
			}
			if elem.size > size {
				size, font = elem.size, elem.font
			}
			first = false
		}

		trimmed := strings.TrimSpace(text.String())
		if trimmed == "" {
			continue
		}
		spans = append(spans, TextSpan{
			Text:     trimmed,
			FontName: font,
			FontSize: size,
			Bold:     fontIsBold(font),
			Bounds:   Rect{X0: minX, Y0: ln.y, X1: maxX + lastWidth, Y1: ln.y + size},
		})
	}
	return spans
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// maxHeadingLineLen keeps long body lines from ever becoming headings,
// whatever their font size.
const maxHeadingLineLen = 100

// fastTextExtractor produces Markdown from per-line spans, promoting
// oversized lines to headings. It needs nothing beyond the pure-Go
// capability and is the cheapest strategy.
type fastTextExtractor struct{}

func (e *fastTextExtractor) Strategy() Strategy { return StrategyFastText }

func (e *fastTextExtractor) Extract(ctx context.Context, req *ExtractRequest) (*Extraction, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("fast_text: no document source")
	}

	var pages []string
	for i := 0; i < req.Source.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		md := e.extractPage(req.Source, i)
		if strings.TrimSpace(md) == "" {
			continue
		}
		pages = append(pages, strings.TrimSpace(md))
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("fast_text: no readable text content")
	}

	return &Extraction{
		Markdown: strings.Join(pages, "\n"+pageBreakMarker+"\n") + "\n",
		Metadata: req.Source.Metadata(),
	}, nil
}

func (e *fastTextExtractor) extractPage(src DocumentSource, i int) string {
	layout, err := src.Layout(i)
	if err != nil || len(layout.Spans) == 0 {
		text, err := src.Text(i)
		if err != nil {
			return ""
		}
		return text
	}

	bodySize := dominantSpanSize(layout.Spans)
	pageMax := 0.0
	for _, sp := range layout.Spans {
		if sp.FontSize > pageMax {
			pageMax = sp.FontSize
		}
	}

	var md strings.Builder
	for _, sp := range layout.Spans {
		level := 0
		// Heading candidates must stand out from the body text; on a
		// page with a single font size nothing is a heading.
		if sp.FontSize > bodySize*1.05 && len(sp.Text) < maxHeadingLineLen {
			level = headingLevelForSize(sp.FontSize, pageMax)
		}
		if level > 0 {
			if md.Len() > 0 {
				md.WriteString("\n")
			}
			md.WriteString(strings.Repeat("#", level))
			md.WriteString(" ")
			md.WriteString(sp.Text)
			md.WriteString("\n\n")
		} else {
			md.WriteString(sp.Text)
			md.WriteString("\n")
		}
	}
	return md.String()
}

// dominantSpanSize returns the font size carrying the most characters.
func dominantSpanSize(spans []TextSpan) float64 {
	counts := map[float64]int{}
	for _, sp := range spans {
		counts[sp.FontSize] += len(sp.Text)
	}
	var best float64
	bestCount := 0
	for size, count := range counts {
		if count > bestCount {
			bestCount = count
			best = size
		}
	}
	return best
}
