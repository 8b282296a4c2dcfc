package expr

import (
	"sort"

	"github.com/DrSkyle/graphwalk/pkg/traversal"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/parser"
)

// Plan splits a query's filter conditions into pruning predicates the
// traversal evaluates on path prefixes and filters applied to finished
// results.
type Plan struct {
	Pruning []traversal.PruningPredicate
	Post    []*Expr
	// Depth is the deepest path position a pruning predicate reads.
	Depth int
}

// Pushed reports the number of conditions moved into the traversal.
func (p *Plan) Pushed() int { return len(p.Pruning) }

// Plan splits every filter at its top-level conjunctions. A conjunct moves
// into the traversal when it reads the path only through constant positions
// p.vertices[i] and p.edges[i]; everything else stays a post filter. With
// optimize false all filters stay post filters.
func (e *Env) Plan(filters []*Expr, params map[string]any, optimize bool) *Plan {
	plan := &Plan{}
	if !optimize {
		plan.Post = append(plan.Post, filters...)
		return plan
	}
	for _, f := range filters {
		native := f.ast.NativeRep()
		parts := conjuncts(native.Expr())
		for _, part := range parts {
			refs, ok := pathRefs(part)
			if !ok {
				plan.Post = append(plan.Post, e.subExpr(f, part, native.SourceInfo(), len(parts)))
				continue
			}
			x := e.subExpr(f, part, native.SourceInfo(), len(parts))
			if x == f && len(parts) > 1 {
				// the conjunct could not be printed back; keep the whole filter
				plan.Post = append(plan.Post, f)
				break
			}
			pred := refs.predicate(x, params)
			if d := pred.Depth(); d > plan.Depth {
				plan.Depth = d
			}
			plan.Pruning = append(plan.Pruning, pred)
		}
	}
	return plan
}

// subExpr recompiles one conjunct of f. It returns f itself when f has a
// single conjunct or the conjunct cannot be rebuilt.
func (e *Env) subExpr(f *Expr, part celast.Expr, info *celast.SourceInfo, n int) *Expr {
	if n == 1 {
		return f
	}
	src, err := parser.Unparse(part, info)
	if err != nil {
		return f
	}
	x, err := e.Compile(src)
	if err != nil {
		return f
	}
	return x
}

func conjuncts(e celast.Expr) []celast.Expr {
	if e.Kind() == celast.CallKind {
		call := e.AsCall()
		if call.FunctionName() == operators.LogicalAnd {
			var out []celast.Expr
			for _, arg := range call.Args() {
				out = append(out, conjuncts(arg)...)
			}
			return out
		}
	}
	return []celast.Expr{e}
}

type elementRef struct {
	kind  traversal.ElementKind
	index int
}

func (r elementRef) depth() int {
	return traversal.PruningPredicate{Kind: r.kind, Index: r.index}.Depth()
}

type refSet []elementRef

// predicate wraps x as a pruning predicate keyed on its deepest reference.
func (rs refSet) predicate(x *Expr, params map[string]any) traversal.PruningPredicate {
	pred := traversal.PruningPredicate{Kind: traversal.VertexElement, Label: x.Source}
	deepest := -1
	needs := make(map[int]bool)
	for _, r := range rs {
		if r.kind == traversal.VertexElement {
			needs[r.index] = true
		}
		if d := r.depth(); d > deepest {
			deepest = d
			pred.Kind, pred.Index = r.kind, r.index
		}
	}
	for i := range needs {
		pred.Needs = append(pred.Needs, i)
	}
	sort.Ints(pred.Needs)
	pred.Eval = func(p *traversal.Path) (bool, error) {
		return x.Match(Activation{Path: p, Params: params})
	}
	return pred
}

// pathRefs collects the constant path positions e reads. It fails when e
// reads v or e, reads p any other way, or uses an operator that can turn an
// error in one operand into a value. A pushed conjunct must be an error on
// every path too short for its deepest position.
func pathRefs(e celast.Expr) (refSet, bool) {
	var refs refSet
	ok := walk(e, &refs)
	return refs, ok
}

func walk(e celast.Expr, refs *refSet) bool {
	switch e.Kind() {
	case celast.LiteralKind:
		return true

	case celast.IdentKind:
		switch e.AsIdent() {
		case VarVertex, VarEdge, VarPath:
			return false
		}
		return true

	case celast.SelectKind:
		return walk(e.AsSelect().Operand(), refs)

	case celast.CallKind:
		call := e.AsCall()
		switch call.FunctionName() {
		case operators.LogicalAnd, operators.LogicalOr, operators.Conditional,
			operators.NotStrictlyFalse, operators.OldNotStrictlyFalse:
			return false
		case operators.Index:
			if ref, ok := positionRef(call.Args()); ok {
				*refs = append(*refs, ref)
				return true
			}
		}
		if call.IsMemberFunction() && !walk(call.Target(), refs) {
			return false
		}
		for _, arg := range call.Args() {
			if !walk(arg, refs) {
				return false
			}
		}
		return true

	case celast.ListKind:
		for _, el := range e.AsList().Elements() {
			if !walk(el, refs) {
				return false
			}
		}
		return true

	case celast.MapKind:
		for _, entry := range e.AsMap().Entries() {
			me := entry.AsMapEntry()
			if !walk(me.Key(), refs) || !walk(me.Value(), refs) {
				return false
			}
		}
		return true

	case celast.ComprehensionKind:
		comp := e.AsComprehension()
		for _, name := range []string{comp.IterVar(), comp.AccuVar()} {
			switch name {
			case VarVertex, VarEdge, VarPath, VarParams:
				return false
			}
		}
		for _, part := range []celast.Expr{comp.IterRange(), comp.AccuInit(), comp.LoopCondition(), comp.LoopStep(), comp.Result()} {
			if !walk(part, refs) {
				return false
			}
		}
		return true
	}
	return false
}

// positionRef matches p.vertices[i] and p.edges[i] with a constant i >= 0.
func positionRef(args []celast.Expr) (elementRef, bool) {
	if len(args) != 2 || args[0].Kind() != celast.SelectKind || args[1].Kind() != celast.LiteralKind {
		return elementRef{}, false
	}
	sel := args[0].AsSelect()
	if sel.IsTestOnly() || sel.Operand().Kind() != celast.IdentKind || sel.Operand().AsIdent() != VarPath {
		return elementRef{}, false
	}
	idx, ok := args[1].AsLiteral().(types.Int)
	if !ok || idx < 0 {
		return elementRef{}, false
	}
	switch sel.FieldName() {
	case "vertices":
		return elementRef{kind: traversal.VertexElement, index: int(idx)}, true
	case "edges":
		return elementRef{kind: traversal.EdgeElement, index: int(idx)}, true
	}
	return elementRef{}, false
}
