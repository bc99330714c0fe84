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
	"os/exec"
	"regexp"
	"strings"
)

// ocrDPI is the rasterization resolution for OCR input. 300 DPI is the
// resolution tesseract's models are trained on.
const ocrDPI = 300

// OCREngine recognizes text in a rendered page image.
type OCREngine interface {
	// Available reports whether the engine can run in this process.
	Available() bool
	// Recognize returns the text found in a PNG image. When
	// preserveLayout is set the engine keeps block structure and
	// inter-word spacing instead of reflowing to plain lines.
	Recognize(ctx context.Context, png []byte, preserveLayout bool) (string, error)
}

// TesseractEngine shells out to the tesseract binary, feeding the image
// on stdin and reading recognized text from stdout.
type TesseractEngine struct {
	// Binary is the executable to run; empty means "tesseract" from PATH.
	Binary string
}

func (e *TesseractEngine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "tesseract"
}

func (e *TesseractEngine) Available() bool {
	_, err := exec.LookPath(e.binary())
	return err == nil
}

func (e *TesseractEngine) Recognize(ctx context.Context, png []byte, preserveLayout bool) (string, error) {
	args := []string{"stdin", "stdout"}
	if preserveLayout {
		args = append(args, "--psm", "1", "-c", "preserve_interword_spaces=1")
	} else {
		args = append(args, "--psm", "6")
	}

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	cmd.Stdin = bytes.NewReader(png)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return stdout.String(), nil
}

var reOCRSpaceRuns = regexp.MustCompile(`[ \t]{2,}`)

// ocrExtractor rasterizes pages and recognizes them with an OCR engine.
// One type serves both OCR strategies; preserveLayout distinguishes them.
type ocrExtractor struct {
	strategy       Strategy
	engine         OCREngine
	preserveLayout bool
}

func newOCRLayoutExtractor(engine OCREngine) *ocrExtractor {
	return &ocrExtractor{strategy: StrategyOCRLayout, engine: engine, preserveLayout: true}
}

func newOCRFastTextExtractor(engine OCREngine) *ocrExtractor {
	return &ocrExtractor{strategy: StrategyOCRFastText, engine: engine}
}

func (e *ocrExtractor) Strategy() Strategy { return e.strategy }

func (e *ocrExtractor) Extract(ctx context.Context, req *ExtractRequest) (*Extraction, error) {
	if e.engine == nil {
		return nil, fmt.Errorf("%s: no OCR engine", e.strategy)
	}
	imager, ok := req.Source.(PageImager)
	if !ok {
		return nil, fmt.Errorf("%s: source cannot rasterize pages", e.strategy)
	}

	var pages []string
	for i := 0; i < req.Source.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		png, err := imager.RenderPage(i, ocrDPI)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.strategy, err)
		}
		text, err := e.engine.Recognize(ctx, png, e.preserveLayout)
		if err != nil {
			return nil, fmt.Errorf("%s: page %d: %w", e.strategy, i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if !e.preserveLayout {
			text = reOCRSpaceRuns.ReplaceAllString(text, " ")
		}
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: no text recognized", e.strategy)
	}

	return &Extraction{
		Markdown: strings.Join(pages, "\n"+pageBreakMarker+"\n") + "\n",
		Metadata: req.Source.Metadata(),
	}, nil
}
