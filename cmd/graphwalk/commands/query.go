package commands

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/DrSkyle/graphwalk/pkg/engine"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
	"github.com/spf13/cobra"
)

type queryFlags struct {
	bind     []string
	bindFile string
	output   string
	stats    bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.bind, "bind", nil, "Bind parameter name=value; value is JSON or a plain string. Use @@name=... for collections")
	cmd.Flags().StringVar(&f.bindFile, "bind-file", "", "JSON file with bind parameters")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "Output format (table, json)")
}

func newQueryCmd(a *app) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query STATEMENT",
		Short: "Run a traversal statement",
		Example: `  graphwalk query --dataset social.yaml "FOR v IN 1..2 OUTBOUND 'persons/alice' knows RETURN v.name"
  graphwalk query --dataset social.yaml --bind start=persons/alice "FOR v IN OUTBOUND @start GRAPH 'social' RETURN v"`,
		Args: cobra.ExactArgs(1),
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

			cur, err := eng.Query(ctx, args[0], bind, engine.QueryOptions{})
			if err != nil {
				return err
			}
			defer cur.Close()
			rows, err := cur.All(ctx)
			if err != nil {
				return err
			}

			res := queryResult{Result: rows, Warnings: cur.Warnings()}
			if res.Warnings == nil {
				res.Warnings = []traversal.Warning{}
			}
			if f.stats {
				s := cur.Stats()
				res.Stats = &s
			}
			return render(cmd.OutOrStdout(), f.output, res)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.stats, "stats", false, "Include traversal statistics")
	return cmd
}

type queryResult struct {
	Result   []any               `json:"result"`
	Warnings []traversal.Warning `json:"warnings"`
	Stats    *traversal.Stats    `json:"stats,omitempty"`
}

// params merges --bind-file and --bind values; --bind wins.
func (f *queryFlags) params() (map[string]any, error) {
	bind := map[string]any{}
	if f.bindFile != "" {
		data, err := os.ReadFile(f.bindFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read bind file: %w", err)
		}
		var fromFile map[string]any
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse bind file: %w", err)
		}
		for k, v := range fromFile {
			bind[k] = integral(v)
		}
	}
	for _, kv := range f.bind {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("bind parameter %q is not name=value", kv)
		}
		name = strings.TrimPrefix(name, "@")
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		bind[name] = integral(v)
	}
	return bind, nil
}

// integral turns whole JSON numbers into int64.
func integral(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
	case []any:
		for i := range x {
			x[i] = integral(x[i])
		}
	case map[string]any:
		for k := range x {
			x[k] = integral(x[k])
		}
	}
	return v
}
