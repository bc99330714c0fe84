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

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	w := r.X1 - r.X0
	if w < 0 {
		return -w
	}
	return w
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	h := r.Y1 - r.Y0
	if h < 0 {
		return -h
	}
	return h
}

// LineSegment is a single vector line drawn on a page.
type LineSegment struct {
	X0, Y0, X1, Y1 float64
}

// TextSpan is one run of text sharing a font on a page.
type TextSpan struct {
	Text     string
	FontName string
	FontSize float64
	Bold     bool
	Bounds   Rect
}

// PageGeometry holds the drawing primitives of one page: vector line
// segments (used for table detection) and embedded raster image regions
// (used for figure detection).
type PageGeometry struct {
	Lines  []LineSegment
	Images []Rect
}

// PageLayout holds the font spans and text block rectangles of one page.
// Collecting it is the expensive per-page call; the analyzer only requests
// it for a bounded sample of pages.
type PageLayout struct {
	Spans  []TextSpan
	Blocks []Rect
}

// DocumentSource is an opened document handle the analyzer and the
// extraction strategies read from. Implementations must be safe for
// repeated reads of the same page; none of the methods mutate the
// underlying document.
type DocumentSource interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// Text returns the raw extracted text of page i (zero-based).
	Text(i int) (string, error)

	// Geometry returns the drawing primitives of page i.
	Geometry(i int) (PageGeometry, error)

	// Layout returns the font spans and text blocks of page i.
	Layout(i int) (PageLayout, error)

	// Metadata returns document-level metadata (title, author, ...).
	// May be empty, never nil.
	Metadata() map[string]string

	// Close releases the underlying document handle.
	Close() error
}

// PageImager is implemented by sources that can rasterize pages, which is
// required by the OCR strategies. Sources without rendering support simply
// do not implement it.
type PageImager interface {
	// RenderPage renders page i at the given DPI and returns PNG bytes.
	RenderPage(i int, dpi int) ([]byte, error)
}
