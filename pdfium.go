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
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/responses"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// pdfiumInstanceTimeout bounds how long we wait for a worker from the pool.
const pdfiumInstanceTimeout = 30 * time.Second

// pdfiumRuntime owns the WebAssembly PDFium worker pool. Constructing it
// is expensive (WASM compilation), so a Converter builds one runtime and
// reuses it for every document.
type pdfiumRuntime struct {
	pool pdfium.Pool
}

func newPdfiumRuntime() (*pdfiumRuntime, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("init pdfium: %w", err)
	}
	return &pdfiumRuntime{pool: pool}, nil
}

func (rt *pdfiumRuntime) Close() error {
	if rt == nil || rt.pool == nil {
		return nil
	}
	return rt.pool.Close()
}

// openSource opens a PDF file as a pdfiumSource. The returned source holds
// a worker instance and the open document until Close is called.
func (rt *pdfiumRuntime) openSource(path string) (*pdfiumSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	instance, err := rt.pool.GetInstance(pdfiumInstanceTimeout)
	if err != nil {
		return nil, fmt.Errorf("get pdfium instance: %w", err)
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		instance.Close()
		return nil, &OpenError{Path: path, Err: err}
	}

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		instance.Close()
		return nil, &OpenError{Path: path, Err: fmt.Errorf("get page count: %w", err)}
	}

	return &pdfiumSource{
		instance:  instance,
		doc:       doc,
		pageCount: pageCountResp.PageCount,
	}, nil
}

// pdfiumSource reads pages through a PDFium worker instance. It implements
// DocumentSource and PageImager.
type pdfiumSource struct {
	instance  pdfium.Pdfium
	doc       *responses.OpenDocument
	pageCount int
}

func (s *pdfiumSource) PageCount() int { return s.pageCount }

func (s *pdfiumSource) page(i int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: s.doc.Document,
			Index:    i,
		},
	}
}

func (s *pdfiumSource) Text(i int) (string, error) {
	resp, err := s.instance.GetPageText(&requests.GetPageText{Page: s.page(i)})
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", i, err)
	}
	return resp.Text, nil
}

// Geometry walks the page object list, collecting image bounds and path
// line segments.
func (s *pdfiumSource) Geometry(i int) (PageGeometry, error) {
	var geo PageGeometry

	countResp, err := s.instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: s.page(i),
	})
	if err != nil {
		return geo, fmt.Errorf("page %d objects: %w", i, err)
	}

	for objIdx := 0; objIdx < countResp.Count; objIdx++ {
		objResp, err := s.instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
			Page:  s.page(i),
			Index: objIdx,
		})
		if err != nil {
			continue
		}
		typeResp, err := s.instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: objResp.PageObject,
		})
		if err != nil {
			continue
		}

		switch typeResp.Type {
		case enums.FPDF_PAGEOBJ_IMAGE:
			bounds, err := s.instance.FPDFPageObj_GetBounds(&requests.FPDFPageObj_GetBounds{
				PageObject: objResp.PageObject,
			})
			if err != nil {
				continue
			}
			geo.Images = append(geo.Images, Rect{
				X0: float64(bounds.Left),
				Y0: float64(bounds.Bottom),
				X1: float64(bounds.Right),
				Y1: float64(bounds.Top),
			})
		case enums.FPDF_PAGEOBJ_PATH:
			geo.Lines = append(geo.Lines, s.pathSegments(objResp.PageObject)...)
		}
	}

	return geo, nil
}

// pathSegments flattens a path object into line segments. Only MOVETO and
// LINETO segments matter; curves never form table rules.
func (s *pdfiumSource) pathSegments(obj references.FPDF_PAGEOBJECT) []LineSegment {
	countResp, err := s.instance.FPDFPath_CountSegments(&requests.FPDFPath_CountSegments{
		PageObject: obj,
	})
	if err != nil {
		return nil
	}

	var segments []LineSegment
	var curX, curY float64
	havePoint := false

	for segIdx := 0; segIdx < countResp.Count; segIdx++ {
		segResp, err := s.instance.FPDFPath_GetPathSegment(&requests.FPDFPath_GetPathSegment{
			PageObject: obj,
			Index:      segIdx,
		})
		if err != nil {
			continue
		}
		pointResp, err := s.instance.FPDFPathSegment_GetPoint(&requests.FPDFPathSegment_GetPoint{
			PathSegment: segResp.PathSegment,
		})
		if err != nil {
			continue
		}
		typeResp, err := s.instance.FPDFPathSegment_GetType(&requests.FPDFPathSegment_GetType{
			PathSegment: segResp.PathSegment,
		})
		if err != nil {
			continue
		}

		x, y := float64(pointResp.X), float64(pointResp.Y)
		switch typeResp.Type {
		case enums.FPDF_SEGMENT_MOVETO:
			curX, curY = x, y
			havePoint = true
		case enums.FPDF_SEGMENT_LINETO:
			if havePoint {
				segments = append(segments, LineSegment{X0: curX, Y0: curY, X1: x, Y1: y})
			}
			curX, curY = x, y
			havePoint = true
		default:
			havePoint = false
		}
	}
	return segments
}

func (s *pdfiumSource) Layout(i int) (PageLayout, error) {
	var layout PageLayout

	structured, err := s.instance.GetPageTextStructured(&requests.GetPageTextStructured{
		Page:                   s.page(i),
		Mode:                   requests.GetPageTextStructuredModeRects,
		CollectFontInformation: true,
	})
	if err != nil {
		return layout, fmt.Errorf("page %d layout: %w", i, err)
	}

	for _, r := range structured.Rects {
		span := TextSpan{
			Text: r.Text,
			Bounds: Rect{
				X0: r.PointPosition.Left,
				Y0: r.PointPosition.Bottom,
				X1: r.PointPosition.Right,
				Y1: r.PointPosition.Top,
			},
		}
		if r.FontInformation != nil {
			span.FontSize = r.FontInformation.Size
			span.FontName = r.FontInformation.Name
			span.Bold = fontIsBold(r.FontInformation.Name)
		}
		layout.Spans = append(layout.Spans, span)
		layout.Blocks = append(layout.Blocks, span.Bounds)
	}

	return layout, nil
}

func (s *pdfiumSource) Metadata() map[string]string {
	meta := map[string]string{}
	for _, tag := range []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate"} {
		resp, err := s.instance.FPDF_GetMetaText(&requests.FPDF_GetMetaText{
			Document: s.doc.Document,
			Tag:      tag,
		})
		if err != nil || resp.Value == "" {
			continue
		}
		meta[tag] = resp.Value
	}
	return meta
}

// RenderPage rasterizes page i at the given DPI and encodes it as PNG.
func (s *pdfiumSource) RenderPage(i int, dpi int) ([]byte, error) {
	resp, err := s.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI:  dpi,
		Page: s.page(i),
	})
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", i, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, resp.Result.Image); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", i, err)
	}
	return buf.Bytes(), nil
}

func (s *pdfiumSource) Close() error {
	_, err := s.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: s.doc.Document,
	})
	s.instance.Close()
	return err
}
