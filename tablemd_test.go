package ragmark

import "testing"

func TestRenderMarkdownTable(t *testing.T) {
	rows := [][]string{
		{"A", "B"},
		{"1", "2|3"},
		{"4"},
	}
	want := "| A | B |\n" +
		"| --- | --- |\n" +
		"| 1 | 2\\|3 |\n" +
		"| 4 |  |\n"

	if got := RenderMarkdownTable(rows); got != want {
		t.Errorf("RenderMarkdownTable:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderMarkdownTableEmpty(t *testing.T) {
	if got := RenderMarkdownTable(nil); got != "" {
		t.Errorf("RenderMarkdownTable(nil) = %q, want empty", got)
	}
	if got := RenderMarkdownTable([][]string{{}}); got != "" {
		t.Errorf("RenderMarkdownTable(empty header) = %q, want empty", got)
	}
}

func TestSanitizeTableCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"multi\nline", "multi line"},
		{"crlf\r\nline", "crlf line"},
		{"a|b", `a\|b`},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := sanitizeTableCell(tt.in); got != tt.want {
			t.Errorf("sanitizeTableCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderMarkdownTableExtraColumnsTruncated(t *testing.T) {
	rows := [][]string{
		{"H1", "H2"},
		{"a", "b", "c"},
	}
	want := "| H1 | H2 |\n" +
		"| --- | --- |\n" +
		"| a | b |\n"

	if got := RenderMarkdownTable(rows); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
