package dataset

import (
	"fmt"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ParseGraphs reads graph definitions:
//
//	graph "social" {
//	  edge_definition "knows" {
//	    from = ["persons"]
//	    to   = ["persons"]
//	  }
//	  orphans = ["places"]
//	}
func ParseGraphs(name string, data []byte) ([]graph.GraphDefinition, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", name, diags)
	}
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("failed to parse %s: not native HCL syntax", name)
	}

	var (
		result *multierror.Error
		graphs []graph.GraphDefinition
	)
	for _, block := range body.Blocks {
		if block.Type != "graph" || len(block.Labels) != 1 {
			result = multierror.Append(result, blockError(block, "expected graph \"<name>\" block"))
			continue
		}
		def := graph.GraphDefinition{Name: block.Labels[0]}

		for _, inner := range block.Body.Blocks {
			if inner.Type != "edge_definition" || len(inner.Labels) != 1 {
				result = multierror.Append(result, blockError(inner, "expected edge_definition \"<collection>\" block"))
				continue
			}
			ed := graph.EdgeDefinition{Collection: inner.Labels[0]}
			var err error
			if ed.From, err = stringList(inner.Body, "from"); err != nil {
				result = multierror.Append(result, err)
			}
			if ed.To, err = stringList(inner.Body, "to"); err != nil {
				result = multierror.Append(result, err)
			}
			def.EdgeDefinitions = append(def.EdgeDefinitions, ed)
		}

		orphans, err := stringList(block.Body, "orphans")
		if err != nil {
			result = multierror.Append(result, err)
		}
		def.OrphanCollections = orphans
		graphs = append(graphs, def)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return graphs, nil
}

func blockError(b *hclsyntax.Block, msg string) error {
	r := b.DefRange()
	return fmt.Errorf("%s:%d: %s", r.Filename, r.Start.Line, msg)
}

// stringList evaluates a constant list of strings. A missing attribute is
// an empty list.
func stringList(body *hclsyntax.Body, name string) ([]string, error) {
	attr, ok := body.Attributes[name]
	if !ok {
		return nil, nil
	}
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", name, diags)
	}
	r := attr.SrcRange
	if !val.Type().IsListType() && !val.Type().IsTupleType() {
		return nil, fmt.Errorf("%s:%d: %s must be a list of strings", r.Filename, r.Start.Line, name)
	}

	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if v.IsNull() || !v.Type().Equals(cty.String) {
			return nil, fmt.Errorf("%s:%d: %s must be a list of strings", r.Filename, r.Start.Line, name)
		}
		out = append(out, v.AsString())
	}
	return out, nil
}
