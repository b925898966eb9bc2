// Package cli implements the mediatorctl command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/next-trace/scg-mediator/internal/config"
)

// options holds state shared by every subcommand of one root command.
type options struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "mediatorctl",
		Short: "Drive the users module through an in-process mediator",
		Long: `mediatorctl wires the example users module onto a mediator and
publishes commands and queries through it.

Configuration is loaded from multiple sources with priority:
1. Environment variables (MEDIATOR_* prefix)
2. Config file (mediator.yaml)
3. Default values

Examples:
  mediatorctl register-user Alice
  mediatorctl register-user Alice --export
  mediatorctl count-users Alice Bob
  mediatorctl config show`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}

			opts.cfg = cfg
			opts.logger = config.NewLogger(cfg.Logging, cmd.ErrOrStderr())

			return nil
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to config file (default: ./mediator.yaml or ./configs/mediator.yaml)")

	rootCmd.AddCommand(newRegisterUserCommand(opts))
	rootCmd.AddCommand(newCountUsersCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
