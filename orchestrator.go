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
	"log/slog"
)

// Quality thresholds used by the retry loop. An attempt at or above the
// active threshold ends the loop immediately.
const (
	DefaultQualityThreshold  = 0.85
	CriticalQualityThreshold = 0.93
)

// resolveThreshold picks the active quality threshold: accuracy-critical
// conversions always use the critical threshold; otherwise a configured
// override applies, falling back to the default.
func resolveThreshold(configured float64, accuracyCritical bool) float64 {
	if accuracyCritical {
		return CriticalQualityThreshold
	}
	if configured > 0 {
		return configured
	}
	return DefaultQualityThreshold
}

// ExtractionAttempt is one scored run of an extractor.
type ExtractionAttempt struct {
	Strategy Strategy
	Markdown string
	Metadata map[string]string
	Score    ConversionScore
}

// scoreFunc rates one extraction attempt against the document analysis.
type scoreFunc func(*DocumentAnalysis, string) ConversionScore

// orchestrate runs extractors in plan order until one meets the quality
// threshold or the plan is exhausted. Each strategy runs at most once.
// Extractor errors are recorded and the next strategy is tried; when no
// attempt produced scoreable output the run fails with ExhaustedError.
func orchestrate(ctx context.Context, logger *slog.Logger, plan []Strategy, extractors map[Strategy]Extractor, req *ExtractRequest, threshold float64, score scoreFunc) (*ExtractionAttempt, error) {
	var best *ExtractionAttempt
	var failures []FailedAttempt

	for _, strategy := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ext, ok := extractors[strategy]
		if !ok {
			continue
		}

		logger.Debug("attempting extraction", "strategy", strategy)
		out, err := ext.Extract(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("extraction attempt failed", "strategy", strategy, "error", err)
			failures = append(failures, FailedAttempt{Strategy: strategy, Err: err})
			continue
		}

		attemptScore := score(req.Analysis, out.Markdown)
		logger.Info("extraction attempt scored",
			"strategy", strategy,
			"overall", attemptScore.Overall,
			"completeness", attemptScore.Completeness,
			"structure", attemptScore.Structure,
			"table_integrity", attemptScore.TableIntegrity,
			"readability", attemptScore.Readability)

		attempt := &ExtractionAttempt{
			Strategy: strategy,
			Markdown: out.Markdown,
			Metadata: out.Metadata,
			Score:    attemptScore,
		}
		if attemptScore.Overall >= threshold {
			return attempt, nil
		}
		// Ties keep the earlier attempt: earlier strategies rank higher
		// in the plan for this document type.
		if best == nil || attempt.Score.Overall > best.Score.Overall {
			best = attempt
		}
	}

	if best != nil {
		logger.Warn("no attempt met quality threshold, using best effort",
			"strategy", best.Strategy, "overall", best.Score.Overall, "threshold", threshold)
		return best, nil
	}
	return nil, &ExhaustedError{Attempts: failures}
}
