package commands

import (
	"fmt"

	"github.com/DrSkyle/graphwalk/pkg/dataset"
	"github.com/DrSkyle/graphwalk/pkg/graph/boltstore"
	"github.com/DrSkyle/graphwalk/pkg/storage"
	"github.com/spf13/cobra"
)

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load SOURCE...",
		Short: "Import datasets into a bolt database",
		Long: `Import datasets and graph definitions into the bolt database given by
--db. Later queries read it with --store bolt.`,
		Example: `  graphwalk load --db social.db social.yaml graphs.hcl
  graphwalk query --store bolt --db social.db "FOR v IN OUTBOUND 'persons/alice' knows RETURN v"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := boltstore.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer s.Close()

			r := dataset.NewReader(storage.S3Options{
				Region:   a.cfg.Dataset.Region,
				Endpoint: a.cfg.Dataset.Endpoint,
			}, a.logger)
			ds, err := r.Read(ctx, args...)
			if err != nil {
				return err
			}
			stats, err := ds.Load(s)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d collections, %d documents, %d graphs into %s\n",
				stats.Collections, stats.Documents, stats.Graphs, a.cfg.Store.Path)
			return nil
		},
	}
}
