package ragmark

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses excess newlines",
			in:   "one\n\n\n\ntwo\n",
			want: "one\n\ntwo\n",
		},
		{
			name: "strips trailing whitespace",
			in:   "line one   \nline two\t\n",
			want: "line one\nline two\n",
		},
		{
			name: "normalizes crlf",
			in:   "one\r\ntwo\rthree\n",
			want: "one\ntwo\nthree\n",
		},
		{
			name: "drops control characters",
			in:   "he\x00llo\x07 wor\x1bld\n",
			want: "hello world\n",
		},
		{
			name: "blank line before heading",
			in:   "intro text\n## Section\nbody\n",
			want: "intro text\n\n## Section\nbody\n",
		},
		{
			name: "removes empty headings",
			in:   "text\n\n###\n\nmore\n",
			want: "text\n\nmore\n",
		},
		{
			name: "unwraps empty links",
			in:   "see [the docs]() here\n",
			want: "see the docs here\n",
		},
		{
			name: "unwraps anchor links",
			in:   "jump to [Section 2](#section-2)\n",
			want: "jump to Section 2\n",
		},
		{
			name: "drops inline images",
			in:   "before ![logo](https://example.com/logo.png) after\n",
			want: "before  after\n",
		},
		{
			name: "unescapes html entities",
			in:   "Tom &amp; Jerry &lt;3\n",
			want: "Tom & Jerry <3\n",
		},
		{
			name: "ensures trailing newline",
			in:   "no newline",
			want: "no newline\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanMarkdown(tt.in); got != tt.want {
				t.Errorf("CleanMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanMarkdownInvalidUTF8(t *testing.T) {
	got := CleanMarkdown("valid \xff\xfe text\n")
	if !strings.Contains(got, "valid") || !strings.Contains(got, "text") {
		t.Errorf("lost surrounding text: %q", got)
	}
	for _, r := range got {
		if r == utf8.RuneError {
			t.Errorf("replacement rune leaked into output: %q", got)
		}
	}
}

func TestExtractTOC(t *testing.T) {
	md := "# Introduction\n\ntext\n\n## Background\n\n### A\n\n## Methods and Results\n"
	entries := extractTOC(md)

	want := []tocEntry{
		{Level: 1, Text: "Introduction"},
		{Level: 2, Text: "Background"},
		{Level: 2, Text: "Methods and Results"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i, e := range entries {
		if e != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, want[i])
		}
	}
}

func TestFormatTOC(t *testing.T) {
	entries := []tocEntry{
		{Level: 1, Text: "Introduction"},
		{Level: 2, Text: "Background"},
		{Level: 3, Text: "Prior Work"},
	}
	got := formatTOC(entries)
	want := "## Table of Contents\n\n" +
		"- Introduction\n" +
		"  - Background\n" +
		"    - Prior Work\n"
	if got != want {
		t.Errorf("formatTOC:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatTOCTooFewHeadings(t *testing.T) {
	entries := []tocEntry{
		{Level: 1, Text: "Introduction"},
		{Level: 2, Text: "Background"},
	}
	if got := formatTOC(entries); got != "" {
		t.Errorf("formatTOC with 2 headings = %q, want empty", got)
	}
}

func TestFormatTOCIndentsFromShallowestLevel(t *testing.T) {
	entries := []tocEntry{
		{Level: 2, Text: "First"},
		{Level: 3, Text: "Nested"},
		{Level: 2, Text: "Second"},
	}
	got := formatTOC(entries)
	if !strings.Contains(got, "\n- First\n") {
		t.Errorf("shallowest entry should be unindented:\n%s", got)
	}
	if !strings.Contains(got, "\n  - Nested\n") {
		t.Errorf("deeper entry should be indented one step:\n%s", got)
	}
}

func TestReadingTime(t *testing.T) {
	if got := readingTime("just a few words"); got != 1 {
		t.Errorf("short text reading time = %d, want 1", got)
	}
	long := strings.Repeat("word ", 450)
	if got := readingTime(long); got != 2 {
		t.Errorf("450 word reading time = %d, want 2", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{`bad<>:"/\|?*chars`, "badchars"},
		{"one;two", "one -two"},
		{"lots   of\t\twhitespace___here", "lots of whitespace here"},
		{"  trimmed  ", "trimmed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilenameTruncatesAtWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got := sanitizeFilename(long)
	if len(got) > maxFilenameLen {
		t.Errorf("sanitized name length %d exceeds %d", len(got), maxFilenameLen)
	}
	if strings.HasSuffix(got, " ") || !strings.HasSuffix(got, "word") {
		t.Errorf("expected cut at word boundary, got %q", got)
	}
}

func TestSanitizeFilenameTruncatesAtRuneBoundary(t *testing.T) {
	// Multi-byte runes with no spaces: the byte cap must not split a rune.
	long := strings.Repeat("日本語", 20)
	got := sanitizeFilename(long)
	if !utf8.ValidString(got) {
		t.Errorf("sanitized name is not valid UTF-8: %q", got)
	}
	if len(got) > maxFilenameLen {
		t.Errorf("sanitized name length %d exceeds %d", len(got), maxFilenameLen)
	}
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		author string
		title  string
		want   string
	}{
		{"Jane Doe", "Annual Report", "Jane Doe - Annual Report.md"},
		{"", "Annual Report", "Annual Report.md"},
		{"Jane Doe", "", "Jane Doe - Untitled.md"},
		{"", "", "Untitled.md"},
	}
	for _, tt := range tests {
		if got := outputFilename(tt.author, tt.title); got != tt.want {
			t.Errorf("outputFilename(%q, %q) = %q, want %q", tt.author, tt.title, got, tt.want)
		}
	}
}
