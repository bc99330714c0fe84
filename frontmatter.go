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
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version identifies this converter in generated frontmatter.
const Version = "1.0.0"

var rePDFDate = regexp.MustCompile(`^D:(\d{4})(\d{2})(\d{2})`)

// pdfFrontmatter is the YAML frontmatter emitted for converted PDFs.
// Field order here is the emission order.
type pdfFrontmatter struct {
	Title                string  `yaml:"title"`
	Author               string  `yaml:"author,omitempty"`
	SourceType           string  `yaml:"source_type"`
	SourceFile           string  `yaml:"source_file"`
	PublicationDate      string  `yaml:"publication_date,omitempty"`
	RetrievedDate        string  `yaml:"retrieved_date"`
	ReadingTimeMinutes   int     `yaml:"reading_time_minutes"`
	PageCount            int     `yaml:"page_count"`
	FiguresExtracted     int     `yaml:"figures_extracted"`
	TablesExtracted      int     `yaml:"tables_extracted"`
	ExtractionConfidence float64 `yaml:"extraction_confidence"`
	ExtractionTool       string  `yaml:"extraction_tool"`
	OCRApplied           bool    `yaml:"ocr_applied"`
	ContentType          string  `yaml:"content_type"`
	ConverterVersion     string  `yaml:"converter_version"`
}

// articleFrontmatter is the YAML frontmatter emitted for web articles,
// EPUBs, feeds and workbooks.
type articleFrontmatter struct {
	Title              string   `yaml:"title"`
	Author             string   `yaml:"author,omitempty"`
	SourceType         string   `yaml:"source_type"`
	SourceURL          string   `yaml:"source_url,omitempty"`
	SourceFile         string   `yaml:"source_file,omitempty"`
	SiteName           string   `yaml:"site_name,omitempty"`
	Publisher          string   `yaml:"publisher,omitempty"`
	Language           string   `yaml:"language,omitempty"`
	Identifier         string   `yaml:"identifier,omitempty"`
	PublicationDate    string   `yaml:"publication_date,omitempty"`
	RetrievedDate      string   `yaml:"retrieved_date"`
	ReadingTimeMinutes int      `yaml:"reading_time_minutes"`
	Tags               []string `yaml:"tags,omitempty"`
	Description        string   `yaml:"description,omitempty"`
	ConverterVersion   string   `yaml:"converter_version"`
}

// renderFrontmatter marshals v as a YAML frontmatter block delimited by
// "---" lines.
func renderFrontmatter(v any) (string, error) {
	body, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(body) + "---\n", nil
}

// parsePDFDate converts a PDF metadata date like "D:20240115093000Z" to
// "2024-01-15". Returns "" when the value does not carry a usable date.
func parsePDFDate(value string) string {
	m := rePDFDate.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
}

// roundConfidence rounds a score to two decimals for frontmatter output.
func roundConfidence(score float64) float64 {
	return math.Round(score*100) / 100
}

func today() string {
	return time.Now().Format("2006-01-02")
}
