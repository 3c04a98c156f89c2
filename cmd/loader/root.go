package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OFFIS-RIT/interactome/internal/config"
	"github.com/OFFIS-RIT/interactome/internal/util"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/logger/console"
)

// cliState is shared by the subcommands of one invocation.
type cliState struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	cmd := &cobra.Command{
		Use:   "loader",
		Short: "Bulk load STRING interaction files into the interactome store",
		Long: `loader rebuilds the alias, evidence and action tables from STRING
flat files and keeps a record of every load run.

The store is selected by STORE_DRIVER (postgres or sqlite); see the
server documentation for the remaining environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			util.LoadEnv()
			state.cfg = config.Load()
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  state.cfg.Debug,
				Format: state.cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			}))
			return state.cfg.Validate()
		},
	}

	cmd.AddCommand(newLoadCmd(state))
	cmd.AddCommand(newMigrateCmd(state))
	cmd.AddCommand(newRunsCmd(state))
	return cmd
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return newRootCmd().ExecuteContext(ctx)
}
