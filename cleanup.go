package ragmark

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reTrailingWhitespace = regexp.MustCompile(`[ \t]+\n`)
	reMultipleNewlines   = regexp.MustCompile(`\n{3,}`)
	reCRLF               = regexp.MustCompile(`\r\n?`)
	reHeadingNoBlank     = regexp.MustCompile(`([^\n])\n(#{1,6}\s)`)
	reEmptyHeading       = regexp.MustCompile(`(?m)^#{1,6}\s*$\n?`)
	reEmptyLink          = regexp.MustCompile(`\[([^\]]*)\]\(\s*\)`)
	reAnchorLink         = regexp.MustCompile(`\[([^\]]*)\]\(#[^)]*\)`)
	reInlineImage        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reHeadingLine        = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	reFilenameForbidden  = regexp.MustCompile(`[<>:"/\\|?*]`)
	reFilenamePunct      = regexp.MustCompile(`[:;]`)
	reFilenameSpaces     = regexp.MustCompile(`[\s_]+`)
)

// wordsPerMinute is the reading speed assumed for reading_time_minutes.
const wordsPerMinute = 225

// minTOCHeadings: a table of contents is only emitted when the document
// carries at least this many usable headings.
const minTOCHeadings = 3

// CleanMarkdown post-processes converted markdown for retrieval ingestion:
// - ensure valid UTF-8 and LF line endings
// - strip control characters (keep \n, \t)
// - strip trailing whitespace from each line
// - collapse 3+ consecutive newlines to 2
// - guarantee a blank line before headings and drop empty headings
// - unwrap empty and intra-document anchor links, drop inline images
// - unescape HTML entities
// The result is trimmed and ends with a single newline.
func CleanMarkdown(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = reCRLF.ReplaceAllString(s, "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	// Links that go nowhere keep their text; decorative images go away.
	s = reEmptyLink.ReplaceAllString(s, "$1")
	s = reAnchorLink.ReplaceAllString(s, "$1")
	s = reInlineImage.ReplaceAllString(s, "")

	s = html.UnescapeString(s)

	s = reHeadingNoBlank.ReplaceAllString(s, "$1\n\n$2")
	s = reEmptyHeading.ReplaceAllString(s, "")

	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	s = reTrailingWhitespace.ReplaceAllString(s, "\n")
	s = reMultipleNewlines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s) + "\n"
}

// tocEntry is one heading captured for the table of contents.
type tocEntry struct {
	Level int
	Text  string
}

// extractTOC collects markdown headings, skipping trivially short ones.
func extractTOC(markdown string) []tocEntry {
	var entries []tocEntry
	for _, m := range reHeadingLine.FindAllStringSubmatch(markdown, -1) {
		text := strings.TrimSpace(m[2])
		if len(text) <= 2 {
			continue
		}
		entries = append(entries, tocEntry{Level: len(m[1]), Text: text})
	}
	return entries
}

// formatTOC renders a "## Table of Contents" section, indenting entries
// relative to the shallowest heading level present. Returns "" when too
// few headings exist to be worth a TOC.
func formatTOC(entries []tocEntry) string {
	if len(entries) < minTOCHeadings {
		return ""
	}
	minLevel := entries[0].Level
	for _, e := range entries[1:] {
		if e.Level < minLevel {
			minLevel = e.Level
		}
	}
	var b strings.Builder
	b.WriteString("## Table of Contents\n\n")
	for _, e := range entries {
		b.WriteString(strings.Repeat("  ", e.Level-minLevel))
		b.WriteString("- ")
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// readingTime estimates reading time in whole minutes, never below 1.
func readingTime(markdown string) int {
	words := len(strings.Fields(markdown))
	minutes := words / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// maxFilenameLen caps the sanitized name component, cut at a word boundary.
const maxFilenameLen = 80

// sanitizeFilename makes a string safe for use as a filename component.
func sanitizeFilename(name string) string {
	name = reFilenameForbidden.ReplaceAllString(name, "")
	name = reFilenamePunct.ReplaceAllString(name, " -")
	name = reFilenameSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	if len(name) > maxFilenameLen {
		end := maxFilenameLen
		for end > 0 && !utf8.RuneStart(name[end]) {
			end--
		}
		cut := name[:end]
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		name = strings.TrimSpace(cut)
	}
	return name
}

// outputFilename builds "{author} - {title}.md", dropping the author part
// when empty after sanitization.
func outputFilename(author, title string) string {
	author = sanitizeFilename(author)
	title = sanitizeFilename(title)
	if title == "" {
		title = "Untitled"
	}
	if author == "" {
		return title + ".md"
	}
	return fmt.Sprintf("%s - %s.md", author, title)
}
