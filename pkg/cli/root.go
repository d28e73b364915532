package cli

import (
	"os"

	"github.com/markcheck/markcheck/pkg/logger"
	"github.com/markcheck/markcheck/pkg/util"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root markcheck command
func NewRootCmd() *cobra.Command {
	var (
		verbose  bool
		logLevel string
		logJSON  bool
	)

	rootCmd := &cobra.Command{
		Use:   "markcheck",
		Short: "Image marking task preparation and markup checks",
		Long: `markcheck prepares image marking tasks the way the task renderer does,
validates collected markup against them, and checks and aggregates exported markup.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := logger.DefaultConfig()
			if cmd.Flags().Changed("log-level") {
				cfg.Level = logger.ParseLevel(logLevel)
			}
			if verbose {
				cfg.Level = logger.DebugLevel
			}
			cfg.JSON = logJSON
			cfg.Output = cmd.ErrOrStderr()

			log := logger.NewLogger(cfg)
			logger.SetDefault(log)

			ctx := util.WithVerbose(cmd.Context(), verbose)
			cmd.SetContext(logger.ContextWithLogger(ctx, log))

			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", string(logger.InfoLevel), "Log level (debug, info, warn, error); defaults to $"+logger.EnvLogLevel)
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")

	// Add subcommands
	rootCmd.AddCommand(NewPrepareCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewVerifyCmd())
	rootCmd.AddCommand(NewDiffCmd())
	rootCmd.AddCommand(NewCheckCmd())
	rootCmd.AddCommand(NewAggregateCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// Main runs the root command and exits with its status.
func Main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
