package commands

import (
	"github.com/DrSkyle/graphwalk/pkg/engine"
	"github.com/spf13/cobra"
)

func newExplainCmd(a *app) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "explain STATEMENT",
		Short: "Show which filters run during the traversal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bind, err := f.params()
			if err != nil {
				return err
			}
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			eng, err := a.newEngine(ctx, store)
			if err != nil {
				return err
			}
			defer eng.Close(ctx)

			x, err := eng.Explain(ctx, args[0], bind, engine.QueryOptions{})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), f.output, x)
		},
	}
	f.register(cmd)
	return cmd
}
