package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OFFIS-RIT/interactome/internal/backend"
	"github.com/OFFIS-RIT/interactome/internal/storage"
	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
)

func newLoadCmd(state *cliState) *cobra.Command {
	var (
		sources common.LoadSources
		source  string
		root    string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Rebuild tables from source files",
		Long: `Rebuild the tables whose source file is given. Tables without a
source keep their current content. Paths are relative to --root (or
LOAD_SOURCE_ROOT) for file sources and are object keys for s3 sources.
Files ending in .gz are decompressed.`,
		Example: `  loader load --aliases 9606.protein.aliases.v12.0.txt.gz \
    --evidence 9606.protein.links.detailed.v12.0.txt.gz \
    --actions 9606.protein.actions.v12.0.txt.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sources == (common.LoadSources{}) {
				return loader.ErrNoSources
			}
			if !storage.ValidSource(source) {
				return fmt.Errorf("unknown source %q", source)
			}
			cfg := state.cfg
			if root != "" {
				cfg.SourceRoot = root
			}

			ctx := cmd.Context()
			if err := backend.Migrate(cfg); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			b, err := backend.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			opener, err := storage.NewSourceOpener(ctx, cfg, source)
			if err != nil {
				return err
			}

			run, err := loader.RecordedLoad(ctx, b.Storage, b.Loader(opener), "", sources)
			printTables(cmd, run)
			if err != nil {
				return fmt.Errorf("load %s failed: %w", run.ID, err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sources.Aliases, "aliases", "", "alias file (protein.aliases)")
	flags.StringVar(&sources.Evidence, "evidence", "", "detailed links file (protein.links.detailed)")
	flags.StringVar(&sources.Actions, "actions", "", "actions file (protein.actions)")
	flags.StringVar(&source, "source", storage.SourceFile, "where source files live: file or s3")
	flags.StringVar(&root, "root", "", "directory of file sources, overrides LOAD_SOURCE_ROOT")
	return cmd
}

func printTables(cmd *cobra.Command, run common.LoadRun) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run %s: %s\n", run.ID, run.Status)
	fmt.Fprintln(w, "TABLE\tROWS\tBATCHES\tDURATION")
	for _, t := range run.Tables {
		fmt.Fprintf(w, "%s\t%d\t%d\t%dms\n", t.Table, t.Rows, t.Batches, t.DurationMs)
	}
	w.Flush()
}
