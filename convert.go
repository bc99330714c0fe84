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
	"os"
	"path/filepath"
	"strings"
)

// ConversionResult describes one successfully written conversion.
type ConversionResult struct {
	OutputPath string
	Title      string
	Strategy   Strategy
	Score      ConversionScore
	Issues     []string
	Message    string
}

// ConvertDocument converts a PDF into a Markdown file under outputDir.
// The document is analyzed, extraction strategies are attempted in
// suitability order until one scores above the quality threshold, detected
// figures are appended as text, and the result is written atomically with
// YAML frontmatter. accuracyCritical raises the threshold for documents
// where errors are expensive.
func (c *Converter) ConvertDocument(ctx context.Context, path, outputDir string, accuracyCritical bool) (*ConversionResult, error) {
	threshold := resolveThreshold(c.qualityThreshold, accuracyCritical)

	src, err := c.openDocumentSource(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if c.caps.None() {
		return nil, &NoCapabilityError{}
	}

	analysis, err := Analyze(src, c.caps)
	if err != nil {
		return nil, fmt.Errorf("analyze %q: %w", path, err)
	}
	c.logger.Info("document analyzed",
		"path", path,
		"type", analysis.DocumentType,
		"pages", analysis.PageCount,
		"text_density", analysis.TextDensity,
		"tables", analysis.TableCount,
		"figures", analysis.FigureCount,
		"recommended", analysis.RecommendedStrategy)

	plan := PlanStrategies(analysis.DocumentType, c.caps)
	if len(plan) == 0 {
		return nil, &NoCapabilityError{DocumentType: analysis.DocumentType}
	}

	req := &ExtractRequest{Path: path, Source: src, Analysis: analysis}
	best, err := orchestrate(ctx, c.logger, plan, c.extractors(), req, threshold, ScoreConversion)
	if err != nil {
		return nil, err
	}

	figures := ConvertFigures(analysis.Figures, func(page int) string {
		text, err := src.Text(page)
		if err != nil {
			return ""
		}
		return text
	}, c.figureLimit)

	body := CleanMarkdown(best.Markdown)
	toc := formatTOC(extractTOC(body))

	meta := mergeMetadata(analysis.Metadata, best.Metadata)
	title := strings.TrimSpace(meta["Title"])
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	author := strings.TrimSpace(meta["Author"])

	ocrApplied := best.Strategy == StrategyOCRLayout || best.Strategy == StrategyOCRFastText

	front, err := renderFrontmatter(pdfFrontmatter{
		Title:                title,
		Author:               author,
		SourceType:           "pdf",
		SourceFile:           filepath.Base(path),
		PublicationDate:      parsePDFDate(meta["CreationDate"]),
		RetrievedDate:        today(),
		ReadingTimeMinutes:   readingTime(body),
		PageCount:            analysis.PageCount,
		FiguresExtracted:     len(figures),
		TablesExtracted:      analysis.TableCount,
		ExtractionConfidence: roundConfidence(best.Score.Overall),
		ExtractionTool:       string(best.Strategy),
		OCRApplied:           ocrApplied,
		ContentType:          string(analysis.DocumentType),
		ConverterVersion:     Version,
	})
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	out.WriteString(front)
	out.WriteString("\n")
	if toc != "" {
		out.WriteString(toc)
		out.WriteString("\n")
	}
	out.WriteString(body)
	if figSection := FormatFigures(figures); figSection != "" {
		out.WriteString("\n")
		out.WriteString(figSection)
	}

	outputPath := filepath.Join(outputDir, outputFilename(author, title))
	if err := writeFileAtomic(outputPath, []byte(out.String())); err != nil {
		return nil, err
	}

	c.logger.Info("document converted",
		"path", path,
		"output", outputPath,
		"strategy", best.Strategy,
		"score", best.Score.Overall)

	return &ConversionResult{
		OutputPath: outputPath,
		Title:      title,
		Strategy:   best.Strategy,
		Score:      best.Score,
		Issues:     best.Score.Issues,
		Message: fmt.Sprintf("converted with %s (score %.2f, %d figures, %d tables)",
			best.Strategy, best.Score.Overall, len(figures), analysis.TableCount),
	}, nil
}

// openDocumentSource opens the document through the layout runtime when
// available and falls back to the pure-Go reader otherwise.
func (c *Converter) openDocumentSource(path string) (DocumentSource, error) {
	if c.pdfium != nil {
		src, err := c.pdfium.openSource(path)
		if err == nil {
			return src, nil
		}
		c.logger.Warn("layout runtime could not open document, trying plain text reader",
			"path", path, "error", err)
	}
	return openFastTextSource(path)
}

// extractors returns the strategy implementations this Converter can run.
func (c *Converter) extractors() map[Strategy]Extractor {
	m := map[Strategy]Extractor{
		StrategyFastText:    &fastTextExtractor{},
		StrategyLayoutAware: &layoutExtractor{},
		StrategyTableAware:  &tableExtractor{},
	}
	if c.ocrEngine != nil {
		m[StrategyOCRLayout] = newOCRLayoutExtractor(c.ocrEngine)
		m[StrategyOCRFastText] = newOCRFastTextExtractor(c.ocrEngine)
	}
	return m
}

// mergeMetadata overlays extractor metadata on analyzer metadata; the
// extractor wins because it read the document last.
func mergeMetadata(base, overlay map[string]string) map[string]string {
	merged := map[string]string{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
}

// writeFileAtomic writes data to path via a temp file and rename, so a
// failed conversion never leaves a partial output file behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ragmark-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
