package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/markcheck/markcheck/pkg/results"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var passRate float64

	cmd := &cobra.Command{
		Use:   "verify <results-file>",
		Short: "Verify validation results meet a pass rate",
		Long: `Verify that validation results meet a minimum sample pass rate.

Exits with code 0 if the threshold is met, code 1 otherwise.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resultsFile := args[0]

			sampleResults, err := results.Load(resultsFile)
			if err != nil {
				return fmt.Errorf("failed to load results file: %w", err)
			}

			stats := results.CalculateStats(resultsFile, sampleResults)
			passed := stats.PassRate >= passRate

			outputVerifyResults(cmd.OutOrStdout(), stats, passRate, passed)

			if !passed {
				// silent error (SilenceErrors: true), sets exit code 1
				return fmt.Errorf("threshold not met")
			}

			return nil
		},
	}

	cmd.Flags().Float64Var(&passRate, "pass-rate", 0.0, "Minimum sample pass rate (0.0-1.0)")

	return cmd
}

func outputVerifyResults(w io.Writer, stats results.Stats, threshold float64, passed bool) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	bold := color.New(color.Bold)

	_, _ = bold.Fprintln(w, "=== Threshold Verification ===")
	fmt.Fprintln(w)

	if passed {
		_, _ = green.Fprintf(w, "Sample Pass Rate: %.2f%% >= %.2f%% ✓\n",
			stats.PassRate*100, threshold*100)
	} else {
		_, _ = red.Fprintf(w, "Sample Pass Rate: %.2f%% < %.2f%% ✗\n",
			stats.PassRate*100, threshold*100)
	}

	fmt.Fprintln(w)
	if passed {
		_, _ = green.Fprintln(w, "Result: PASSED")
	} else {
		_, _ = red.Fprintln(w, "Result: FAILED")
	}
}
