package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DrSkyle/graphwalk/pkg/config"
	"github.com/DrSkyle/graphwalk/pkg/dataset"
	"github.com/DrSkyle/graphwalk/pkg/engine"
	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/graph/boltstore"
	"github.com/DrSkyle/graphwalk/pkg/graph/memstore"
	"github.com/DrSkyle/graphwalk/pkg/storage"
	"github.com/DrSkyle/graphwalk/pkg/version"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "graphwalk",
		Short: "Graph traversal query engine",
		Long: `graphwalk - Graph Traversal Engine

Load. Traverse. Filter.`,
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	d := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default ~/.graphwalk.yaml)")
	pf.StringSlice("dataset", nil, "Dataset or graph definition sources (path or s3://bucket/key)")
	pf.String("store", d.Store.Backend, "Store backend (memory, bolt)")
	pf.String("db", d.Store.Path, "Bolt database file")
	pf.String("region", d.Dataset.Region, "AWS Region for s3:// sources")
	pf.String("endpoint", "", "S3-compatible endpoint")
	pf.String("log-level", d.Log.Level, "Log level (debug, info, warn, error)")
	pf.Bool("json-logs", false, "Log as JSON")
	pf.Bool("no-optimizer", false, "Evaluate every FILTER after the traversal")

	for key, flag := range map[string]string{
		"dataset.sources":  "dataset",
		"store.backend":    "store",
		"store.path":       "db",
		"dataset.region":   "region",
		"dataset.endpoint": "endpoint",
		"log.level":        "log-level",
		"log.json":         "json-logs",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(
		newQueryCmd(a),
		newExplainCmd(a),
		newPathCmd(a),
		newLoadCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command) error {
	// .env is optional
	_ = godotenv.Load()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.SetConfigFile(filepath.Join(home, ".graphwalk.yaml"))
		a.v.SetConfigType("yaml")
	}
	a.v.SetEnvPrefix("graphwalk")
	if err := a.v.ReadInConfig(); err != nil && a.cfgFile != "" {
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	if off, _ := cmd.Flags().GetBool("no-optimizer"); off {
		cfg.Traversal.Optimizer = false
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(w io.Writer, c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore opens the configured backend and loads the dataset sources
// into it.
func (a *app) openStore(ctx context.Context) (graph.Store, func(), error) {
	var (
		store   graph.MutableStore
		closeFn = func() {}
	)
	switch a.cfg.Store.Backend {
	case "bolt":
		s, err := boltstore.Open(a.cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		store = s
		closeFn = func() { s.Close() }
	default:
		store = memstore.New()
	}

	if err := a.load(ctx, store, a.cfg.Dataset.Sources); err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

func (a *app) load(ctx context.Context, store graph.MutableStore, sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	r := dataset.NewReader(storage.S3Options{
		Region:   a.cfg.Dataset.Region,
		Endpoint: a.cfg.Dataset.Endpoint,
	}, a.logger)
	ds, err := r.Read(ctx, sources...)
	if err != nil {
		return err
	}
	stats, err := ds.Load(store)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	a.logger.Debug("dataset loaded", "collections", stats.Collections, "documents", stats.Documents, "graphs", stats.Graphs)
	return nil
}

func (a *app) newEngine(ctx context.Context, store graph.Store) (*engine.Engine, error) {
	return engine.New(ctx, store,
		engine.WithLogger(a.logger),
		engine.WithConfig(a.cfg),
	)
}

func renderHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("GRAPHWALK %s", version.Current)))
	fmt.Fprintln(out, cmd.Short)

	fmt.Fprintln(out, titleStyle.Render("USAGE"))
	fmt.Fprintf(out, "  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(out, titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Fprintf(out, "  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Fprintln(out)
	}

	if cmd.Example != "" {
		fmt.Fprintln(out, titleStyle.Render("EXAMPLES"))
		fmt.Fprintln(out, cmd.Example)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Fprintln(out, flagStyle.Render(output))
	})
	fmt.Fprintln(out)
}
