package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewPrepareCmd creates the prepare command
func NewPrepareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare <task-file>",
		Short: "Print the prepared form of a task",
		Long: `Render a task file the way the task renderer does and print the prepared
task as JSON: every task field except premarkup, with premarkup marks as "marks".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, prepared, err := renderTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer ctrl.Close()

			data, err := json.MarshalIndent(prepared, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal prepared task: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	return cmd
}
