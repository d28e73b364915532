// Package results provides utilities for validating collected markup against a
// prepared task and for loading, filtering and analyzing the outcome.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/markcheck/markcheck/pkg/markup"
	"github.com/markcheck/markcheck/pkg/task"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of samples validated concurrently when no
// positive worker count is given.
const DefaultWorkers = 8

// SampleResult is the validation outcome of one marker's result for one image.
type SampleResult struct {
	FileName string `json:"fileName"`
	MarkerID string `json:"markerId"`
	Passed   bool   `json:"passed"`
	Reason   string `json:"reason,omitempty"`
	Marks    int    `json:"marks"`
}

// Stats holds computed statistics from validation results.
type Stats struct {
	ResultsFile   string  `json:"resultsFile"`
	SamplesTotal  int     `json:"samplesTotal"`
	SamplesPassed int     `json:"samplesPassed"`
	PassRate      float64 `json:"passRate"`
	MarksTotal    int     `json:"marksTotal"`
	FilesTotal    int     `json:"filesTotal"`
}

// Hooks are the installed validator and transformer of a rendered task.
// *controller.Controller satisfies it.
type Hooks interface {
	Validate(result task.Result) (task.Verdict, error)
	Transform(result task.Result) (task.Result, error)
}

// Prepared exposes the hooks of a prepared task as Hooks.
func Prepared(p *task.PreparedTask) Hooks {
	return preparedHooks{p: p}
}

type preparedHooks struct {
	p *task.PreparedTask
}

func (h preparedHooks) Validate(result task.Result) (task.Verdict, error) {
	if h.p == nil || h.p.Validate == nil {
		return task.Verdict{}, fmt.Errorf("task has no validator")
	}
	return h.p.Validate(result), nil
}

func (h preparedHooks) Transform(result task.Result) (task.Result, error) {
	if h.p == nil || h.p.Transform == nil {
		return nil, fmt.Errorf("task has no transformer")
	}
	return h.p.Transform(result), nil
}

// Validate transforms and validates the result of every sample, at most
// workers at a time. Results are returned in sample order. A hook error stops
// the run.
func Validate(ctx context.Context, hooks Hooks, samples []markup.Sample, workers int) ([]*SampleResult, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	out := make([]*SampleResult, len(samples))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, s := range samples {
		i, s := i, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := hooks.Transform(s.TaskResult())
			if err != nil {
				return fmt.Errorf("failed to transform result of '%s' by '%s': %w", s.FileName, s.MarkerID, err)
			}

			verdict, err := hooks.Validate(result)
			if err != nil {
				return fmt.Errorf("failed to validate result of '%s' by '%s': %w", s.FileName, s.MarkerID, err)
			}

			marks, _ := task.AsSequence(result[task.FieldMarks])
			out[i] = &SampleResult{
				FileName: s.FileName,
				MarkerID: s.MarkerID,
				Passed:   verdict.Passed,
				Reason:   verdict.Reason,
				Marks:    len(marks),
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// Load reads a JSON results file and returns the parsed results.
func Load(path string) ([]*SampleResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var results []*SampleResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results JSON: %w", err)
	}

	return results, nil
}

// Save writes results as an indented JSON array.
func Save(path string, results []*SampleResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	return nil
}

// Filter returns the subset of results whose file names contain the filter substring.
func Filter(results []*SampleResult, filter string) []*SampleResult {
	if filter == "" {
		return results
	}

	filter = strings.ToLower(filter)
	filtered := make([]*SampleResult, 0, len(results))
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.FileName), filter) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// CalculateStats computes statistics from validation results.
func CalculateStats(resultsFile string, results []*SampleResult) Stats {
	stats := Stats{
		ResultsFile:  resultsFile,
		SamplesTotal: len(results),
	}

	files := map[string]struct{}{}
	for _, result := range results {
		if result.Passed {
			stats.SamplesPassed++
		}
		stats.MarksTotal += result.Marks
		files[result.FileName] = struct{}{}
	}
	stats.FilesTotal = len(files)

	if stats.SamplesTotal > 0 {
		stats.PassRate = float64(stats.SamplesPassed) / float64(stats.SamplesTotal)
	}

	return stats
}

// FailureReason returns why a result failed, or "" when it passed.
func FailureReason(r *SampleResult) string {
	if r.Passed {
		return ""
	}
	if r.Reason == "" {
		return "validation failed"
	}
	return r.Reason
}
