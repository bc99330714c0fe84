package ragmark

import (
	"math"
	"strings"
	"testing"
)

func TestScoreConversionCleanDocument(t *testing.T) {
	body := strings.Repeat("word ", 200) // 800 non-whitespace chars
	md := "# One\n\n## Two\n\n### Three\n\n" + body

	analysis := &DocumentAnalysis{PageCount: 10, TotalChars: 1000}
	score := ScoreConversion(analysis, md)

	if score.Completeness != 1.0 {
		t.Errorf("Completeness = %v, want 1.0", score.Completeness)
	}
	if score.Structure != 1.0 {
		t.Errorf("Structure = %v, want 1.0", score.Structure)
	}
	if score.TableIntegrity != 1.0 {
		t.Errorf("TableIntegrity = %v, want 1.0 for a document without tables", score.TableIntegrity)
	}
	if score.Readability != 1.0 {
		t.Errorf("Readability = %v, want 1.0", score.Readability)
	}
	if math.Abs(score.Overall-1.0) > 1e-9 {
		t.Errorf("Overall = %v, want 1.0", score.Overall)
	}
	if len(score.Issues) != 0 {
		t.Errorf("Issues = %v, want none", score.Issues)
	}
}

func TestScoreConversionWeights(t *testing.T) {
	// Half the text, no headings, no tables expected, clean output.
	md := strings.Repeat("a", 400)
	analysis := &DocumentAnalysis{PageCount: 1, TotalChars: 1000}

	score := ScoreConversion(analysis, md)

	wantCompleteness := 0.5
	if score.Completeness != wantCompleteness {
		t.Fatalf("Completeness = %v, want %v", score.Completeness, wantCompleteness)
	}
	want := 0.35*wantCompleteness + 0.20*0 + 0.25*1 + 0.20*1
	if math.Abs(score.Overall-want) > 1e-9 {
		t.Errorf("Overall = %v, want %v", score.Overall, want)
	}
}

func TestScoreConversionMissingText(t *testing.T) {
	analysis := &DocumentAnalysis{PageCount: 5, TotalChars: 10000}
	score := ScoreConversion(analysis, "# Title\n\nalmost nothing")

	if score.Completeness >= 0.5 {
		t.Errorf("Completeness = %v, want < 0.5", score.Completeness)
	}
	if !hasIssue(score, "significant text may be missing") {
		t.Errorf("missing-text issue not reported: %v", score.Issues)
	}
}

func TestScoreConversionFewHeadings(t *testing.T) {
	analysis := &DocumentAnalysis{PageCount: 50, TotalChars: 100}
	score := ScoreConversion(analysis, strings.Repeat("text ", 100))

	if score.Structure != 0 {
		t.Errorf("Structure = %v, want 0", score.Structure)
	}
	if !hasIssue(score, "few or no headers detected") {
		t.Errorf("structure issue not reported: %v", score.Issues)
	}
}

func TestScoreConversionMissingTables(t *testing.T) {
	analysis := &DocumentAnalysis{PageCount: 4, TotalChars: 100, TableCount: 2}

	// One table's worth of pipe rows for two detected tables.
	md := "# H\n\n| a | b |\n| --- | --- |\n| 1 | 2 |\n" + strings.Repeat("x", 100)
	score := ScoreConversion(analysis, md)

	if score.TableIntegrity != 0.5 {
		t.Errorf("TableIntegrity = %v, want 0.5", score.TableIntegrity)
	}
	if !hasIssue(score, "some tables may not have been extracted (1/2)") {
		t.Errorf("table issue not reported: %v", score.Issues)
	}
}

func TestScoreConversionGarbage(t *testing.T) {
	analysis := &DocumentAnalysis{PageCount: 1, TotalChars: 10}
	md := "ok\x00\x01\x02\x03\x04 text"
	score := ScoreConversion(analysis, md)

	if score.Readability >= 1.0 {
		t.Errorf("Readability = %v, want < 1.0", score.Readability)
	}
	if !hasIssue(score, "garbage/non-printable") {
		t.Errorf("garbage issue not reported: %v", score.Issues)
	}
}

func TestScoreConversionRepeatArtifacts(t *testing.T) {
	analysis := &DocumentAnalysis{PageCount: 1, TotalChars: 10}

	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString(strings.Repeat(string(rune('a'+i)), 8))
		b.WriteString(" ")
	}
	score := ScoreConversion(analysis, b.String())

	if !hasIssue(score, "possible OCR artifacts") {
		t.Errorf("repeat-run issue not reported: %v", score.Issues)
	}
	if score.Readability > repeatRunMultiplier {
		t.Errorf("Readability = %v, want <= %v", score.Readability, repeatRunMultiplier)
	}
}

func TestCountRepeatRuns(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"abcdef", 0},
		{"aaaaaa", 1},
		{"aaaaa", 0}, // below minimum run length
		{"aaaaaabbbbbbcc", 2},
		{"xxxxxxx yyyyyyy", 2},
	}
	for _, tt := range tests {
		if got := countRepeatRuns(tt.s, repeatRunLength); got != tt.want {
			t.Errorf("countRepeatRuns(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestCountGarbageChars(t *testing.T) {
	if got := countGarbageChars("plain\ttext\nwith\rws"); got != 0 {
		t.Errorf("countGarbageChars = %d, want 0", got)
	}
	if got := countGarbageChars("a\x00b\x7Fcd"); got != 3 {
		t.Errorf("countGarbageChars = %d, want 3", got)
	}
}

func TestScoreConversionUnknownBaseline(t *testing.T) {
	// No original text volume: completeness falls back to the unknown
	// baseline instead of zero.
	analysis := &DocumentAnalysis{PageCount: 1, TotalChars: 0}
	score := ScoreConversion(analysis, "# H\n\nsome text")

	if score.Completeness != 0.5 {
		t.Errorf("Completeness = %v, want 0.5", score.Completeness)
	}
}

func hasIssue(score ConversionScore, substr string) bool {
	for _, issue := range score.Issues {
		if strings.Contains(issue, substr) {
			return true
		}
	}
	return false
}
