package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/markcheck/markcheck/pkg/logger"
	"github.com/markcheck/markcheck/pkg/markup"
	"github.com/markcheck/markcheck/pkg/results"
	"github.com/markcheck/markcheck/pkg/util"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	var (
		outputFile string
		workers    int
		filter     string
	)

	cmd := &cobra.Command{
		Use:   "validate <task-file> <markup-file>",
		Short: "Validate collected markup against a prepared task",
		Long: `Prepare a task, then run its result transformer and validator over every
marker's result in an exported markup file.

Examples:
  markcheck validate task.yaml markup.json
  markcheck validate task.yaml markup.json -o results.json --file horse/`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			ctrl, _, err := renderTask(ctx, args[0])
			if err != nil {
				return err
			}
			defer ctrl.Close()

			samples, err := markup.Load(args[1])
			if err != nil {
				return err
			}
			util.Verbosef(ctx, out, "Validating %d samples...", len(samples))

			sampleResults, err := results.Validate(ctx, ctrl, samples, workers)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			sampleResults = results.Filter(sampleResults, filter)

			if outputFile != "" {
				if err := results.Save(outputFile, sampleResults); err != nil {
					return err
				}
				logger.FromContext(ctx).Info("results saved", "file", outputFile, "samples", len(sampleResults))
			}

			outputValidateResults(out, results.CalculateStats(outputFile, sampleResults), sampleResults)

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write results as JSON to this file")
	cmd.Flags().IntVar(&workers, "workers", results.DefaultWorkers, "Number of samples validated concurrently")
	cmd.Flags().StringVar(&filter, "file", "", "Only report samples whose file name contains this value")

	return cmd
}

func outputValidateResults(w io.Writer, stats results.Stats, sampleResults []*results.SampleResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	bold := color.New(color.Bold)

	_, _ = bold.Fprintln(w, "=== Validation Results ===")
	fmt.Fprintln(w)

	for _, r := range sampleResults {
		if r.Passed {
			continue
		}
		_, _ = red.Fprintf(w, "✗ %s (%s): %s\n", r.FileName, r.MarkerID, results.FailureReason(r))
	}

	fmt.Fprintf(w, "\nFiles:     %d\n", stats.FilesTotal)
	fmt.Fprintf(w, "Samples:   %d\n", stats.SamplesTotal)
	fmt.Fprintf(w, "Marks:     %d\n", stats.MarksTotal)

	c := green
	if stats.SamplesPassed < stats.SamplesTotal {
		c = red
	}
	_, _ = c.Fprintf(w, "Passed:    %d/%d (%.2f%%)\n", stats.SamplesPassed, stats.SamplesTotal, stats.PassRate*100)
}
