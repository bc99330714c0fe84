package ragmark

import (
	"strings"
	"testing"
)

func TestConvertFiguresCaptionMatch(t *testing.T) {
	regions := []FigureRegion{
		{PageIndex: 2, Kind: FigureKindImage, Confidence: 0.9},
	}
	pageText := func(page int) string {
		return "Some preamble\nFigure 3: Revenue by quarter\nmore text"
	}

	figures := ConvertFigures(regions, pageText, 0)
	if len(figures) != 1 {
		t.Fatalf("got %d figures, want 1", len(figures))
	}
	fig := figures[0]
	if fig.Ref != "fig_3" {
		t.Errorf("Ref = %q, want fig_3", fig.Ref)
	}
	if fig.Title != "Revenue by quarter" {
		t.Errorf("Title = %q, want %q", fig.Title, "Revenue by quarter")
	}
	if fig.Page != 3 {
		t.Errorf("Page = %d, want 3", fig.Page)
	}
}

func TestConvertFiguresChartCaption(t *testing.T) {
	regions := []FigureRegion{{PageIndex: 0, Kind: FigureKindChart, Confidence: 0.9}}
	figures := ConvertFigures(regions, func(int) string { return "Chart 7. Monthly active users" }, 0)

	if figures[0].Ref != "fig_7" {
		t.Errorf("Ref = %q, want fig_7", figures[0].Ref)
	}
	if figures[0].Title != "Monthly active users" {
		t.Errorf("Title = %q, want %q", figures[0].Title, "Monthly active users")
	}
}

func TestConvertFiguresDefaults(t *testing.T) {
	regions := []FigureRegion{{PageIndex: 4, Kind: FigureKindImage, Confidence: 0.9}}
	figures := ConvertFigures(regions, func(int) string { return "no captions here" }, 0)

	fig := figures[0]
	if fig.Ref != "fig_5" {
		t.Errorf("Ref = %q, want page-indexed fig_5", fig.Ref)
	}
	if fig.Title != defaultFigureTitle {
		t.Errorf("Title = %q, want %q", fig.Title, defaultFigureTitle)
	}
}

func TestConvertFiguresConfidenceTiers(t *testing.T) {
	regions := []FigureRegion{
		{PageIndex: 0, Kind: FigureKindImage, Confidence: 0.9},
		{PageIndex: 1, Kind: FigureKindImage, Confidence: 0.6},
		{PageIndex: 2, Kind: FigureKindImage, Confidence: 0.3},
	}
	figures := ConvertFigures(regions, nil, 0)

	if strings.Contains(figures[0].Description, "ambiguous") || strings.Contains(figures[0].Description, "Low confidence") {
		t.Errorf("high confidence description should carry no warning: %q", figures[0].Description)
	}
	if !strings.Contains(figures[1].Description, figureMidConfidenceNote) {
		t.Errorf("mid confidence description = %q", figures[1].Description)
	}
	if !strings.Contains(figures[2].Description, figureLowConfidenceNote) {
		t.Errorf("low confidence description = %q", figures[2].Description)
	}
}

func TestConvertFiguresCap(t *testing.T) {
	var regions []FigureRegion
	for i := 0; i < 30; i++ {
		regions = append(regions, FigureRegion{PageIndex: i, Kind: FigureKindImage, Confidence: 0.9})
	}

	if got := len(ConvertFigures(regions, nil, 0)); got != defaultFigureLimit {
		t.Errorf("default cap: got %d figures, want %d", got, defaultFigureLimit)
	}
	if got := len(ConvertFigures(regions, nil, 5)); got != 5 {
		t.Errorf("explicit cap: got %d figures, want 5", got)
	}
}

func TestFormatFigures(t *testing.T) {
	figures := []ExtractedFigure{
		{
			Ref:         "fig_1",
			Page:        1,
			Kind:        FigureKindChart,
			Confidence:  0.9,
			Title:       "Revenue",
			Description: "This figure on page 1 appears to be a chart.",
		},
		{
			Ref:         "fig_2",
			Page:        2,
			Kind:        FigureKindImage,
			Confidence:  0.3,
			Title:       defaultFigureTitle,
			Description: "This figure on page 2 appears to be an image. " + figureLowConfidenceNote,
		},
	}

	out := FormatFigures(figures)

	if !strings.HasPrefix(out, "## Figures\n") {
		t.Errorf("missing section heading:\n%s", out)
	}
	if !strings.Contains(out, `<figure ref="fig_1" page="1" type="chart" confidence="90">`) {
		t.Errorf("missing figure tag:\n%s", out)
	}
	if !strings.Contains(out, "**Revenue**") {
		t.Errorf("missing bold title:\n%s", out)
	}
	if !strings.Contains(out, "</figure>") {
		t.Errorf("missing closing tag:\n%s", out)
	}
	// Low-confidence figures repeat the warning as a standalone italic line.
	if !strings.Contains(out, "*"+figureLowConfidenceNote+"*") {
		t.Errorf("missing italic low-confidence warning:\n%s", out)
	}
}

func TestFormatFiguresEmpty(t *testing.T) {
	if out := FormatFigures(nil); out != "" {
		t.Errorf("FormatFigures(nil) = %q, want empty", out)
	}
}
