package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
	"github.com/spf13/cobra"
)

type pathResult struct {
	Found    bool                `json:"found"`
	Vertices []string            `json:"vertices"`
	Edges    []string            `json:"edges"`
	Weight   float64             `json:"weight"`
	Warnings []traversal.Warning `json:"warnings"`
}

func newPathCmd(a *app) *cobra.Command {
	var (
		graphName     string
		collections   []string
		direction     string
		weight        string
		defaultWeight float64
		output        string
	)
	cmd := &cobra.Command{
		Use:     "path FROM TO",
		Short:   "Find the shortest path between two vertices",
		Example: `  graphwalk path --dataset social.yaml --graph social persons/alice persons/eve`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, err := graph.ParseDirection(direction)
			if err != nil {
				return err
			}
			req := traversal.ShortestPathOptions{
				From:            args[0],
				To:              args[1],
				Direction:       dir,
				WeightAttribute: weight,
				DefaultWeight:   defaultWeight,
				Source:          traversal.CollectionSource{Graph: graphName},
			}
			for _, c := range collections {
				req.Source.Collections = append(req.Source.Collections, traversal.CollectionRef{Name: c})
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

			res, err := eng.ShortestPath(ctx, req)
			if err != nil {
				return err
			}

			out := pathResult{Vertices: []string{}, Edges: []string{}, Warnings: res.Warnings}
			if out.Warnings == nil {
				out.Warnings = []traversal.Warning{}
			}
			if res.Path != nil {
				out.Found = true
				out.Weight = res.Weight
				for _, v := range res.Path.Vertices {
					out.Vertices = append(out.Vertices, v.ID())
				}
				for _, e := range res.Path.Edges {
					out.Edges = append(out.Edges, e.ID())
				}
			}
			return render(cmd.OutOrStdout(), output, out)
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Named graph")
	cmd.Flags().StringSliceVar(&collections, "collection", nil, "Edge collections")
	cmd.Flags().StringVar(&direction, "direction", "outbound", "Direction (outbound, inbound, any)")
	cmd.Flags().StringVar(&weight, "weight", "", "Edge attribute holding the weight")
	cmd.Flags().Float64Var(&defaultWeight, "default-weight", 1, "Weight of edges without the attribute")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	return cmd
}

func renderPath(w io.Writer, p pathResult) {
	if !p.Found {
		fmt.Fprintln(w, warnStyle.Render("no path"))
	} else {
		fmt.Fprintln(w, strings.Join(p.Vertices, " -> "))
		fmt.Fprintf(w, "%s %d\n", labelStyle.Render("hops"), len(p.Edges))
		fmt.Fprintf(w, "%s %g\n", labelStyle.Render("weight"), p.Weight)
	}
	for _, warn := range p.Warnings {
		fmt.Fprintln(w, warnStyle.Render(warn.String()))
	}
}
