package ragmark

import (
	"strings"
	"testing"
)

func TestRenderLayoutPageInlineBoldFromSpanFlag(t *testing.T) {
	// Bold rendering follows the span's Bold flag, not the font name.
	spans := []TextSpan{
		{Text: "Plain text ", FontName: "Times", FontSize: 10, Bold: false,
			Bounds: Rect{X0: 0, Y0: 700, X1: 60, Y1: 710}},
		{Text: "emphasized", FontName: "Times", FontSize: 10, Bold: true,
			Bounds: Rect{X0: 60, Y0: 700, X1: 120, Y1: 710}},
	}
	md := renderLayoutPage(spans)
	if !strings.Contains(md, "Plain text **emphasized**") {
		t.Errorf("expected inline bold from span flag, got %q", md)
	}
}

func TestRenderLayoutPageBoldLinePromotedToHeading(t *testing.T) {
	spans := []TextSpan{
		{Text: "References", FontName: "Times", FontSize: 10, Bold: true,
			Bounds: Rect{X0: 0, Y0: 740, X1: 60, Y1: 750}},
		{Text: "Smith, J. (2024). A study of document layout analysis.",
			FontName: "Times", FontSize: 10,
			Bounds: Rect{X0: 0, Y0: 700, X1: 300, Y1: 710}},
	}
	md := renderLayoutPage(spans)
	if !strings.Contains(md, "### References") {
		t.Errorf("expected bold body-size line promoted to heading, got %q", md)
	}
}
