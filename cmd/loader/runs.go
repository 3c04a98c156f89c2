package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/OFFIS-RIT/interactome/internal/backend"
)

func newRunsCmd(state *cliState) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent load runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := backend.Migrate(state.cfg); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			b, err := backend.Open(ctx, state.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			runs, err := b.Storage.ListLoadRuns(ctx, limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Status, r.StartedAt.Format(time.RFC3339), r.Error)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print runs as JSON")
	return cmd
}
