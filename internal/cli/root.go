package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fairbot/internal/config"
	"fairbot/internal/logger"
)

type options struct {
	output  string
	envFile string
	cfg     *config.Config
}

// NewRootCmd builds the fairbot command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "fairbot",
		Short: "FairBot rental assistant and interaction log",
		Long: `fairbot answers rental questions over HTTP and Telegram, logs every
question, answer and admin correction, and serves the log back to
operators grouped by interaction.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("load %s: %w", opts.envFile, err)
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("parse config: %w", err)
			}
			opts.cfg = cfg
			logger.Init(logger.Config{
				Level:      cfg.LogLevel,
				Path:       cfg.LogFilePath,
				MaxSizeMB:  cfg.LogMaxSizeMB,
				MaxBackups: cfg.LogMaxBackups,
				MaxAgeDays: cfg.LogMaxAgeDays,
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format: text, json, yaml")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newHistoryCmd(opts),
		newCorrectionsCmd(opts),
		newCorrectCmd(opts),
		newReportCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
