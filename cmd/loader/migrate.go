package main

import (
	"github.com/spf13/cobra"

	"github.com/OFFIS-RIT/interactome/internal/backend"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
)

func newMigrateCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := backend.Migrate(state.cfg); err != nil {
				return err
			}
			logger.Info("Schema is up to date", "driver", state.cfg.StoreDriver)
			return nil
		},
	}
}
