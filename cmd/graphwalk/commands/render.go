package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/DrSkyle/graphwalk/pkg/engine"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#874BFD")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	switch x := v.(type) {
	case queryResult:
		renderRows(w, x)
	case *engine.Explanation:
		renderExplanation(w, x)
	case pathResult:
		renderPath(w, x)
	default:
		return render(w, "json", v)
	}
	return nil
}

func renderRows(w io.Writer, res queryResult) {
	cols := objectColumns(res.Result)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if cols == nil {
		t.Headers("value")
		for _, r := range res.Result {
			t.Row(cell(r))
		}
	} else {
		t.Headers(cols...)
		for _, r := range res.Result {
			obj := r.(map[string]any)
			row := make([]string, len(cols))
			for i, c := range cols {
				row[i] = cell(obj[c])
			}
			t.Row(row...)
		}
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("results"), len(res.Result))
	if res.Stats != nil {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("stats"), res.Stats)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintln(w, warnStyle.Render(warn.String()))
	}
}

// objectColumns returns the sorted union of keys when every row is an
// object, and nil otherwise.
func objectColumns(rows []any) []string {
	if len(rows) == 0 {
		return nil
	}
	seen := map[string]bool{}
	for _, r := range rows {
		obj, ok := r.(map[string]any)
		if !ok {
			return nil
		}
		for k := range obj {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func renderExplanation(w io.Writer, x *engine.Explanation) {
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-12s %s\n", label, value)
		}
	}
	line("depth", x.Depth)
	line("order", x.Order)
	line("uniqueness", fmt.Sprintf("vertices=%s edges=%s", x.UniqueVertices, x.UniqueEdges))
	line("directions", strings.Join(x.Directions, ", "))
	line("graph", x.Graph)
	line("collections", strings.Join(x.Collections, ", "))
	line("prune", x.Prune)
	line("sort", strings.Join(x.Sort, ", "))
	line("limit", x.Limit)
	line("return", x.Return)

	fmt.Fprintln(w, "\npushed")
	if len(x.Pushed) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, p := range x.Pushed {
		fmt.Fprintf(w, "  %s  %s\n", p.Position, p.Condition)
	}
	fmt.Fprintln(w, "post")
	if len(x.Post) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, p := range x.Post {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
