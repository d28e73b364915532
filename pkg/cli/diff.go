package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/markcheck/markcheck/pkg/results"
	"github.com/spf13/cobra"
)

// DiffResult holds the comparison between two validation runs
type DiffResult struct {
	BaseStats    results.Stats
	HeadStats    results.Stats
	Regressions  []SampleDiff
	Improvements []SampleDiff
	New          []SampleDiff
	Removed      []SampleDiff
}

// SampleDiff holds the diff for a single marker's result on one image
type SampleDiff struct {
	Sample        string
	BasePassed    bool
	HeadPassed    bool
	FailureReason string
}

// NewDiffCmd creates the diff command
func NewDiffCmd() *cobra.Command {
	var outputFormat string
	var baseFile string
	var currentFile string

	cmd := &cobra.Command{
		Use:   "diff --base <results-file> --current <results-file>",
		Short: "Compare two validation results",
		Long: `Compare validation results between two runs, e.g. before and after a
change to the task or a new markup export.

Shows regressions, improvements, and the overall pass rate change.

Example:
  markcheck diff --base results-before.json --current results-after.json
  markcheck diff --base results-before.json --current results-after.json --output markdown`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseResults, err := results.Load(baseFile)
			if err != nil {
				return fmt.Errorf("failed to load base results: %w", err)
			}

			currentResults, err := results.Load(currentFile)
			if err != nil {
				return fmt.Errorf("failed to load current results: %w", err)
			}

			diff := calculateDiff(baseFile, currentFile, baseResults, currentResults)

			switch outputFormat {
			case "text":
				outputTextDiff(cmd.OutOrStdout(), diff)
			case "markdown":
				outputMarkdownDiff(cmd.OutOrStdout(), diff)
			default:
				return fmt.Errorf("unknown output format: %s", outputFormat)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&baseFile, "base", "", "Base results file")
	cmd.Flags().StringVar(&currentFile, "current", "", "Current results file")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, markdown)")

	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("current")

	return cmd
}

func sampleKey(r *results.SampleResult) string {
	return fmt.Sprintf("%s (%s)", r.FileName, r.MarkerID)
}

func calculateDiff(baseFile, currentFile string, baseResults, currentResults []*results.SampleResult) DiffResult {
	diff := DiffResult{
		BaseStats:    results.CalculateStats(baseFile, baseResults),
		HeadStats:    results.CalculateStats(currentFile, currentResults),
		Regressions:  make([]SampleDiff, 0),
		Improvements: make([]SampleDiff, 0),
		New:          make([]SampleDiff, 0),
		Removed:      make([]SampleDiff, 0),
	}

	baseMap := make(map[string]*results.SampleResult, len(baseResults))
	for _, r := range baseResults {
		baseMap[sampleKey(r)] = r
	}

	currentMap := make(map[string]*results.SampleResult, len(currentResults))
	for _, r := range currentResults {
		currentMap[sampleKey(r)] = r
	}

	for _, current := range currentResults {
		key := sampleKey(current)
		base, exists := baseMap[key]
		if !exists {
			diff.New = append(diff.New, SampleDiff{
				Sample:        key,
				HeadPassed:    current.Passed,
				FailureReason: results.FailureReason(current),
			})
			continue
		}

		sampleDiff := SampleDiff{
			Sample:        key,
			BasePassed:    base.Passed,
			HeadPassed:    current.Passed,
			FailureReason: results.FailureReason(current),
		}

		if base.Passed && !current.Passed {
			diff.Regressions = append(diff.Regressions, sampleDiff)
		} else if !base.Passed && current.Passed {
			diff.Improvements = append(diff.Improvements, sampleDiff)
		}
	}

	for _, base := range baseResults {
		key := sampleKey(base)
		if _, exists := currentMap[key]; !exists {
			diff.Removed = append(diff.Removed, SampleDiff{
				Sample:     key,
				BasePassed: base.Passed,
			})
		}
	}

	return diff
}

func outputTextDiff(w io.Writer, diff DiffResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	bold := color.New(color.Bold)

	_, _ = bold.Fprintln(w, "=== Validation Diff ===")
	fmt.Fprintln(w)

	if len(diff.Regressions) > 0 {
		_, _ = red.Fprintf(w, "Regressions (%d):\n", len(diff.Regressions))
		for _, r := range diff.Regressions {
			_, _ = red.Fprintf(w, "  ✗ %s: PASSED → FAILED\n", r.Sample)
			if r.FailureReason != "" {
				fmt.Fprintf(w, "      %s\n", r.FailureReason)
			}
		}
		fmt.Fprintln(w)
	}

	if len(diff.Improvements) > 0 {
		_, _ = green.Fprintf(w, "Improvements (%d):\n", len(diff.Improvements))
		for _, r := range diff.Improvements {
			_, _ = green.Fprintf(w, "  ✓ %s: FAILED → PASSED\n", r.Sample)
		}
		fmt.Fprintln(w)
	}

	if len(diff.New) > 0 {
		_, _ = yellow.Fprintf(w, "New Samples (%d):\n", len(diff.New))
		for _, r := range diff.New {
			if r.HeadPassed {
				_, _ = green.Fprintf(w, "  + %s: PASSED\n", r.Sample)
			} else {
				_, _ = red.Fprintf(w, "  + %s: FAILED\n", r.Sample)
			}
		}
		fmt.Fprintln(w)
	}

	if len(diff.Removed) > 0 {
		_, _ = yellow.Fprintf(w, "Removed Samples (%d):\n", len(diff.Removed))
		for _, r := range diff.Removed {
			fmt.Fprintf(w, "  - %s\n", r.Sample)
		}
		fmt.Fprintln(w)
	}

	_, _ = bold.Fprintln(w, "=== Summary ===")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "             Base        Head        Change\n")
	fmt.Fprintf(w, "Samples:     %d/%-8d %d/%-8d ",
		diff.BaseStats.SamplesPassed, diff.BaseStats.SamplesTotal,
		diff.HeadStats.SamplesPassed, diff.HeadStats.SamplesTotal)
	printChange(w, diff.HeadStats.PassRate-diff.BaseStats.PassRate)
}

func printChange(w io.Writer, change float64) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	if change > 0 {
		_, _ = green.Fprintf(w, "+%.1f%%\n", change*100)
	} else if change < 0 {
		_, _ = red.Fprintf(w, "%.1f%%\n", change*100)
	} else {
		fmt.Fprintln(w, "0.0%")
	}
}

func outputMarkdownDiff(w io.Writer, diff DiffResult) {
	fmt.Fprintln(w, "### 📊 Validation Results")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Metric | Base | Head | Change |")
	fmt.Fprintln(w, "|--------|------|------|--------|")
	fmt.Fprintf(w, "| Samples | %d/%d (%.1f%%) | %d/%d (%.1f%%) | %s |\n",
		diff.BaseStats.SamplesPassed, diff.BaseStats.SamplesTotal, diff.BaseStats.PassRate*100,
		diff.HeadStats.SamplesPassed, diff.HeadStats.SamplesTotal, diff.HeadStats.PassRate*100,
		formatChangeMarkdown(diff.HeadStats.PassRate-diff.BaseStats.PassRate))

	if len(diff.Regressions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "#### ❌ Regressions (%d)\n", len(diff.Regressions))
		for _, r := range diff.Regressions {
			fmt.Fprintf(w, "- `%s`: PASSED → FAILED", r.Sample)
			if r.FailureReason != "" {
				fmt.Fprintf(w, " - %s", r.FailureReason)
			}
			fmt.Fprintln(w)
		}
	}

	if len(diff.Improvements) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "#### ✅ Improvements (%d)\n", len(diff.Improvements))
		for _, r := range diff.Improvements {
			fmt.Fprintf(w, "- `%s`: FAILED → PASSED\n", r.Sample)
		}
	}

	if len(diff.New) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "#### 🆕 New Samples (%d)\n", len(diff.New))
		for _, r := range diff.New {
			status := "PASSED"
			if !r.HeadPassed {
				status = "FAILED"
			}
			fmt.Fprintf(w, "- `%s`: %s\n", r.Sample, status)
		}
	}

	if len(diff.Removed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "#### 🗑️ Removed Samples (%d)\n", len(diff.Removed))
		for _, r := range diff.Removed {
			fmt.Fprintf(w, "- `%s`\n", r.Sample)
		}
	}
}

func formatChangeMarkdown(change float64) string {
	if change > 0 {
		return fmt.Sprintf("🟢 +%.1f%%", change*100)
	} else if change < 0 {
		return fmt.Sprintf("🔴 %.1f%%", change*100)
	}
	return "➖ 0.0%"
}
