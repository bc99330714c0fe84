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

// gridClusterTolerance merges near-identical rule coordinates: two
// horizontal rules within this distance are the same table boundary.
const gridClusterTolerance = 3.0

// tableGrid is one reconstructed table region on a page: the sorted cell
// boundary coordinates derived from clustered rules.
type tableGrid struct {
	rowYs []float64 // descending: PDF y grows upward
	colXs []float64 // ascending
}

func (g *tableGrid) bounds() Rect {
	return Rect{
		X0: g.colXs[0],
		Y0: g.rowYs[len(g.rowYs)-1],
		X1: g.colXs[len(g.colXs)-1],
		Y1: g.rowYs[0],
	}
}

func (g *tableGrid) contains(r Rect) bool {
	b := g.bounds()
	cx := (r.X0 + r.X1) / 2
	cy := (r.Y0 + r.Y1) / 2
	return cx >= b.X0 && cx <= b.X1 && cy >= b.Y0 && cy <= b.Y1
}

// cellFor returns the row and column index the rect's center falls into,
// or ok=false when it lies on the grid edge.
func (g *tableGrid) cellFor(r Rect) (row, col int, ok bool) {
	cx := (r.X0 + r.X1) / 2
	cy := (r.Y0 + r.Y1) / 2
	row, col = -1, -1
	for i := 0; i < len(g.rowYs)-1; i++ {
		if cy <= g.rowYs[i] && cy >= g.rowYs[i+1] {
			row = i
			break
		}
	}
	for j := 0; j < len(g.colXs)-1; j++ {
		if cx >= g.colXs[j] && cx <= g.colXs[j+1] {
			col = j
			break
		}
	}
	return row, col, row >= 0 && col >= 0
}

// tableExtractor renders pages the same way the layout strategy does but
// first reconstructs ruled tables from the page's vector lines, emitting
// those regions as pipe tables instead of flowing text.
type tableExtractor struct{}

func (e *tableExtractor) Strategy() Strategy { return StrategyTableAware }

func (e *tableExtractor) Extract(ctx context.Context, req *ExtractRequest) (*Extraction, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("table_aware: no document source")
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
		return nil, fmt.Errorf("table_aware: no extractable content")
	}

	return &Extraction{
		Markdown: strings.Join(pages, "\n"+pageBreakMarker+"\n") + "\n",
		Metadata: req.Source.Metadata(),
	}, nil
}

func (e *tableExtractor) extractPage(src DocumentSource, i int) string {
	layout, err := src.Layout(i)
	if err != nil || len(layout.Spans) == 0 {
		return ""
	}

	geo, err := src.Geometry(i)
	if err != nil {
		return renderLayoutPage(layout.Spans)
	}

	grid := detectTableGrid(geo.Lines)
	if grid == nil {
		return renderLayoutPage(layout.Spans)
	}

	var inside, outside []TextSpan
	for _, sp := range layout.Spans {
		if grid.contains(sp.Bounds) {
			inside = append(inside, sp)
		} else {
			outside = append(outside, sp)
		}
	}

	table := renderTableFromGrid(grid, inside)
	if table == "" {
		return renderLayoutPage(layout.Spans)
	}

	// Text above the table, the table, then text below it, ordered by
	// vertical position relative to the grid.
	var above, below []TextSpan
	top := grid.bounds().Y1
	for _, sp := range outside {
		if (sp.Bounds.Y0+sp.Bounds.Y1)/2 > top {
			above = append(above, sp)
		} else {
			below = append(below, sp)
		}
	}

	var b strings.Builder
	if md := strings.TrimSpace(renderLayoutPage(above)); md != "" {
		b.WriteString(md)
		b.WriteString("\n\n")
	}
	b.WriteString(table)
	if md := strings.TrimSpace(renderLayoutPage(below)); md != "" {
		b.WriteString("\n")
		b.WriteString(md)
		b.WriteString("\n")
	}
	return b.String()
}

// detectTableGrid clusters the page's axis-aligned rules into row and
// column boundaries. Returns nil when the rules do not form a grid of at
// least 2x2 cells.
func detectTableGrid(lines []LineSegment) *tableGrid {
	var hYs, vXs []float64
	for _, l := range lines {
		switch {
		case math.Abs(l.Y0-l.Y1) < lineAxisTolerance:
			hYs = append(hYs, (l.Y0+l.Y1)/2)
		case math.Abs(l.X0-l.X1) < lineAxisTolerance:
			vXs = append(vXs, (l.X0+l.X1)/2)
		}
	}

	rowYs := clusterCoords(hYs)
	colXs := clusterCoords(vXs)
	if len(rowYs) < 3 || len(colXs) < 3 {
		return nil
	}

	// Rows read top to bottom.
	sort.Sort(sort.Reverse(sort.Float64Slice(rowYs)))
	sort.Float64s(colXs)
	return &tableGrid{rowYs: rowYs, colXs: colXs}
}

// clusterCoords collapses coordinates closer than the cluster tolerance
// into their mean, one value per distinct rule.
func clusterCoords(coords []float64) []float64 {
	if len(coords) == 0 {
		return nil
	}
	sort.Float64s(coords)

	var clusters []float64
	start := 0
	for i := 1; i <= len(coords); i++ {
		if i == len(coords) || coords[i]-coords[i-1] > gridClusterTolerance {
			sum := 0.0
			for _, c := range coords[start:i] {
				sum += c
			}
			clusters = append(clusters, sum/float64(i-start))
			start = i
		}
	}
	return clusters
}

// renderTableFromGrid fills the grid's cells with span text and renders a
// pipe table. Returns "" when the grid captured no text.
func renderTableFromGrid(grid *tableGrid, spans []TextSpan) string {
	numRows := len(grid.rowYs) - 1
	numCols := len(grid.colXs) - 1

	cells := make([][]string, numRows)
	for r := range cells {
		cells[r] = make([]string, numCols)
	}

	// Spans are assigned in reading order so multi-span cells concatenate
	// left to right, top to bottom.
	sorted := append([]TextSpan(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Bounds.Y1-sorted[j].Bounds.Y1) < gridClusterTolerance {
			return sorted[i].Bounds.X0 < sorted[j].Bounds.X0
		}
		return sorted[i].Bounds.Y1 > sorted[j].Bounds.Y1
	})

	filled := false
	for _, sp := range sorted {
		text := strings.TrimSpace(sp.Text)
		if text == "" {
			continue
		}
		row, col, ok := grid.cellFor(sp.Bounds)
		if !ok {
			continue
		}
		if cells[row][col] != "" {
			cells[row][col] += " "
		}
		cells[row][col] += text
		filled = true
	}
	if !filled {
		return ""
	}

	return RenderMarkdownTable(cells)
}
