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
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Converter is the document-to-markdown conversion engine. A Converter is
// built once, probes its capabilities at construction, and is then reused
// for every document; Close releases the PDF runtime.
type Converter struct {
	logger           *slog.Logger
	httpClient       *http.Client
	ocrEngine        OCREngine
	qualityThreshold float64
	figureLimit      int
	capsOverride     *Capabilities

	pdfium *pdfiumRuntime
	caps   Capabilities
}

// New creates a Converter with the given options and probes which
// extraction capabilities this process has. A missing PDF runtime or OCR
// binary is not an error: the affected strategies are simply unavailable.
func New(opts ...Option) *Converter {
	c := &Converter{
		logger:      slog.Default(),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		ocrEngine:   &TesseractEngine{},
		figureLimit: defaultFigureLimit,
	}
	for _, opt := range opts {
		opt(c)
	}

	rt, err := newPdfiumRuntime()
	if err != nil {
		c.logger.Warn("pdf layout runtime unavailable, falling back to plain text extraction", "error", err)
	} else {
		c.pdfium = rt
	}
	c.caps = c.detectCapabilities()

	return c
}

// Close releases the Converter's PDF runtime. The Converter must not be
// used afterwards.
func (c *Converter) Close() error {
	if c.pdfium != nil {
		return c.pdfium.Close()
	}
	return nil
}

// Capabilities returns the extraction capabilities of this Converter.
func (c *Converter) Capabilities() Capabilities {
	return c.caps
}

func (c *Converter) detectCapabilities() Capabilities {
	if c.capsOverride != nil {
		return *c.capsOverride
	}
	caps := Capabilities{
		FastText:    true,
		LayoutAware: c.pdfium != nil,
		TableAware:  c.pdfium != nil,
	}
	if c.ocrEngine != nil && c.ocrEngine.Available() {
		// OCR additionally needs page rasterization, which the layout
		// runtime provides.
		caps.OCR = c.pdfium != nil
	}
	return caps
}

// Convert auto-detects the source type and converts it, writing the result
// into outputDir. URLs go through the article converter, feed files and
// URLs through the feed converter, local files by extension and sniffed
// MIME type.
func (c *Converter) Convert(ctx context.Context, source, outputDir string, accuracyCritical bool) (*ConversionResult, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		urlPath := strings.Split(source, "?")[0]
		switch strings.ToLower(filepath.Ext(urlPath)) {
		case ".rss", ".atom":
			return c.ConvertFeed(ctx, source, outputDir)
		}
		return c.ConvertURL(ctx, source, outputDir)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".pdf":
		return c.ConvertDocument(ctx, source, outputDir, accuracyCritical)
	case ".epub":
		return c.ConvertEPUB(ctx, source, outputDir)
	case ".xlsx", ".xls", ".csv":
		return c.ConvertWorkbook(ctx, source, outputDir)
	case ".rss", ".atom":
		return c.ConvertFeed(ctx, source, outputDir)
	case ".html", ".htm":
		return c.ConvertHTMLFile(ctx, source, outputDir)
	}

	// Extensionless or unknown: sniff the content.
	mtype, err := mimetype.DetectFile(source)
	if err != nil {
		return nil, &OpenError{Path: source, Err: err}
	}
	switch {
	case mtype.Is("application/pdf"):
		return c.ConvertDocument(ctx, source, outputDir, accuracyCritical)
	case mtype.Is("application/epub+zip"):
		return c.ConvertEPUB(ctx, source, outputDir)
	case mtype.Is("text/html"):
		return c.ConvertHTMLFile(ctx, source, outputDir)
	case mtype.Is("text/csv"):
		return c.ConvertWorkbook(ctx, source, outputDir)
	case mtype.Is("application/rss+xml") || mtype.Is("application/atom+xml"):
		return c.ConvertFeed(ctx, source, outputDir)
	}

	return nil, &UnsupportedFormatError{
		Extension: strings.ToLower(filepath.Ext(source)),
		MIMEType:  mtype.String(),
	}
}
