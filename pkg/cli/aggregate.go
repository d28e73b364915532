package cli

import (
	"fmt"

	"github.com/markcheck/markcheck/pkg/logger"
	"github.com/markcheck/markcheck/pkg/markup"
	"github.com/spf13/cobra"
)

// NewAggregateCmd creates the aggregate command
func NewAggregateCmd() *cobra.Command {
	var (
		outputFile    string
		markupOutput  string
		wrongCasesDir string
	)

	cmd := &cobra.Command{
		Use:   "aggregate <check-file>",
		Short: "Aggregate the labels markers gave each box",
		Long: `Filter exported markup by label and box size, group the boxes of each image
into subtasks markers agree on, and take the majority label of each subtask.

Examples:
  markcheck aggregate check.yaml -o aggregated.json
  markcheck aggregate check.yaml -o aggregated.json --markup-output markup-aggregated.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			log := logger.FromContext(ctx)

			run, err := loadCheckRun(args[0], wrongCasesDir)
			if err != nil {
				return err
			}

			answers, _, _, err := run.filter(ctx, out)
			if err != nil {
				return err
			}

			rows, inconsistent, err := markup.GroupBySubtask(answers, run.sizer, run.cfg.Spec.RelativeErrorOrDefault())
			if err != nil {
				return fmt.Errorf("failed to group boxes: %w", err)
			}
			if len(inconsistent) > 0 {
				p, err := run.writeReport(inconsistentFile, inconsistent)
				if err != nil {
					return err
				}
				log.Warn("boxes outside every subtask", "count", len(inconsistent), "file", p)
			}

			votes := markup.MajorityVote(rows)

			if err := writeJSON(outputFile, votes); err != nil {
				return err
			}
			fmt.Fprintf(out, "📄 %d subtasks aggregated to: %s\n", len(votes), outputFile)

			if markupOutput != "" {
				if err := markup.Save(markupOutput, markup.ToSamples(rows, run.samples)); err != nil {
					return err
				}
				fmt.Fprintf(out, "📄 Grouped markup saved to: %s\n", markupOutput)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "aggregated.json", "Aggregated labels output file")
	cmd.Flags().StringVar(&markupOutput, "markup-output", "", "Also write the grouped boxes in the exported markup format")
	cmd.Flags().StringVar(&wrongCasesDir, "wrong-cases-dir", "", "Directory for failing cases (overrides the check file)")

	return cmd
}
