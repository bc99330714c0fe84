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
	"regexp"
)

// ConversionScore is the quality assessment of one extraction attempt.
// All component scores and Overall are in [0,1]; Overall is always the
// fixed weighted combination of the four components.
type ConversionScore struct {
	Overall        float64
	Completeness   float64
	Structure      float64
	TableIntegrity float64
	Readability    float64
	Issues         []string
}

// Scoring weights and tuning parameters. The weights must sum to 1.0.
const (
	weightCompleteness   = 0.35
	weightStructure      = 0.20
	weightTableIntegrity = 0.25
	weightReadability    = 0.20

	// completenessAllowance tolerates legitimate boilerplate and
	// whitespace removal during extraction.
	completenessAllowance = 0.8
	// minExpectedHeadings and headingsPerPages size the structure
	// expectation: max(minExpectedHeadings, pageCount/headingsPerPages).
	minExpectedHeadings = 3
	headingsPerPages    = 5
	// rowsPerTable assumes a real table renders at least this many pipe
	// rows. Rough: it can over- and under-count for header-only or very
	// wide tables, but no better signal exists without real table
	// structure awareness.
	rowsPerTable = 3
	// garbagePenaltyFactor drives readability to zero at 10% garbage.
	garbagePenaltyFactor = 10.0
	// repeatRunLength/repeatRunLimit detect OCR artifacts: more than
	// repeatRunLimit runs of the same character repeated at least
	// repeatRunLength times discounts readability.
	repeatRunLength      = 6
	repeatRunLimit       = 10
	repeatRunMultiplier  = 0.8
	lowCompletenessFloor = 0.5
	garbageIssueRatio    = 0.01
)

var (
	reMarkdownHeading = regexp.MustCompile(`(?m)^#{1,6}\s+.+$`)
	rePipeTableRow    = regexp.MustCompile(`(?m)^\|.+\|$`)
	reWhitespace      = regexp.MustCompile(`\s+`)
)

// ScoreConversion evaluates a candidate Markdown output against the
// original document analysis. It is a pure function of its inputs.
func ScoreConversion(analysis *DocumentAnalysis, markdown string) ConversionScore {
	var issues []string

	// Completeness: non-whitespace output volume against the original
	// text volume, discounted by the boilerplate allowance.
	extractedChars := len([]rune(reWhitespace.ReplaceAllString(markdown, "")))
	expectedChars := float64(analysis.TotalChars) * completenessAllowance

	completeness := 0.5 // unknown baseline
	if expectedChars > 0 {
		completeness = clamp01(float64(extractedChars) / expectedChars)
	}
	if completeness < lowCompletenessFloor {
		issues = append(issues, "significant text may be missing from output")
	}

	// Structure: heading count against a page-derived expectation.
	headings := len(reMarkdownHeading.FindAllString(markdown, -1))
	expectedHeadings := analysis.PageCount / headingsPerPages
	if expectedHeadings < minExpectedHeadings {
		expectedHeadings = minExpectedHeadings
	}
	structure := clamp01(float64(headings) / float64(expectedHeadings))
	if headings < 2 {
		issues = append(issues, "few or no headers detected - document structure may be lost")
	}

	// Table integrity: pipe-row count as a crude table estimate.
	tableIntegrity := 1.0
	if analysis.TableCount > 0 {
		pipeRows := len(rePipeTableRow.FindAllString(markdown, -1))
		extractedTables := pipeRows / rowsPerTable
		tableIntegrity = clamp01(float64(extractedTables) / float64(analysis.TableCount))
		if extractedTables < analysis.TableCount {
			issues = append(issues, fmt.Sprintf(
				"some tables may not have been extracted (%d/%d)",
				extractedTables, analysis.TableCount))
		}
	}

	// Readability: penalize control characters and OCR repeat artifacts.
	readability := 0.0
	totalChars := len([]rune(markdown))
	if totalChars > 0 {
		garbage := countGarbageChars(markdown)
		ratio := float64(garbage) / float64(totalChars)
		readability = clamp01(1.0 - ratio*garbagePenaltyFactor)
		if ratio > garbageIssueRatio {
			issues = append(issues, "output contains garbage/non-printable characters")
		}
	}
	if countRepeatRuns(markdown, repeatRunLength) > repeatRunLimit {
		readability *= repeatRunMultiplier
		issues = append(issues, "possible OCR artifacts detected (repeated characters)")
	}

	return ConversionScore{
		Overall: weightCompleteness*completeness +
			weightStructure*structure +
			weightTableIntegrity*tableIntegrity +
			weightReadability*readability,
		Completeness:   completeness,
		Structure:      structure,
		TableIntegrity: tableIntegrity,
		Readability:    readability,
		Issues:         issues,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// countGarbageChars counts non-printable control characters, excluding
// tab, newline and carriage return, plus the C1 range.
func countGarbageChars(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if r < 0x20 || r == 0x7F || (r >= 0x80 && r <= 0x9F) {
			n++
		}
	}
	return n
}

// countRepeatRuns counts maximal runs of one repeated character of at
// least minLen. Go regexp has no backreferences, so this is a plain scan.
func countRepeatRuns(s string, minLen int) int {
	runs := 0
	var prev rune
	length := 0
	for i, r := range s {
		if i > 0 && r == prev {
			length++
			continue
		}
		if length >= minLen {
			runs++
		}
		prev = r
		length = 1
	}
	if length >= minLen {
		runs++
	}
	return runs
}

// String renders a compact human-readable summary for logs and the CLI.
func (s ConversionScore) String() string {
	return fmt.Sprintf("overall=%.2f completeness=%.2f structure=%.2f tables=%.2f readability=%.2f issues=%d",
		s.Overall, s.Completeness, s.Structure, s.TableIntegrity, s.Readability, len(s.Issues))
}
