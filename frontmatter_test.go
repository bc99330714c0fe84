package ragmark

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"D:20240115093000Z", "2024-01-15"},
		{"D:20231201", "2023-12-01"},
		{"  D:20240115093000Z  ", "2024-01-15"},
		{"2024-01-15", ""},
		{"D:2024", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parsePDFDate(tt.in); got != tt.want {
			t.Errorf("parsePDFDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderFrontmatter(t *testing.T) {
	fm := pdfFrontmatter{
		Title:                "Annual Report",
		Author:               "Jane Doe",
		SourceType:           "pdf",
		SourceFile:           "report.pdf",
		RetrievedDate:        "2026-08-27",
		ReadingTimeMinutes:   4,
		PageCount:            12,
		FiguresExtracted:     2,
		TablesExtracted:      1,
		ExtractionConfidence: 0.91,
		ExtractionTool:       "layout_aware",
		ContentType:          "text_heavy",
		ConverterVersion:     Version,
	}

	out, err := renderFrontmatter(fm)
	if err != nil {
		t.Fatalf("renderFrontmatter: %v", err)
	}
	if !strings.HasPrefix(out, "---\n") || !strings.HasSuffix(out, "---\n") {
		t.Errorf("missing frontmatter delimiters:\n%s", out)
	}

	var parsed map[string]any
	body := strings.TrimSuffix(strings.TrimPrefix(out, "---\n"), "---\n")
	if err := yaml.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("frontmatter is not valid YAML: %v\n%s", err, out)
	}
	for _, key := range []string{
		"title", "author", "source_type", "source_file", "retrieved_date",
		"reading_time_minutes", "page_count", "figures_extracted",
		"tables_extracted", "extraction_confidence", "extraction_tool",
		"ocr_applied", "content_type", "converter_version",
	} {
		if _, ok := parsed[key]; !ok {
			t.Errorf("frontmatter missing key %q:\n%s", key, out)
		}
	}
	if parsed["title"] != "Annual Report" {
		t.Errorf("title = %v", parsed["title"])
	}
}

func TestRenderFrontmatterOmitsEmptyOptionalFields(t *testing.T) {
	out, err := renderFrontmatter(pdfFrontmatter{
		Title:      "Untitled",
		SourceType: "pdf",
	})
	if err != nil {
		t.Fatalf("renderFrontmatter: %v", err)
	}
	if strings.Contains(out, "author:") {
		t.Errorf("empty author should be omitted:\n%s", out)
	}
	if strings.Contains(out, "publication_date:") {
		t.Errorf("empty publication_date should be omitted:\n%s", out)
	}
}

func TestRoundConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.912345, 0.91},
		{0.915, 0.92},
		{1.0, 1.0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := roundConfidence(tt.in); got != tt.want {
			t.Errorf("roundConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
