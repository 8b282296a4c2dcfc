// Package expr compiles and evaluates the expressions used in FILTER, PRUNE,
// SORT and RETURN clauses. Expressions are CEL over the variables v (the
// vertex), e (the edge), p (the path, with vertices and edges lists) and
// params (bind parameters).
package expr

import (
	"errors"
	"fmt"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// Variable names visible to expressions.
const (
	VarVertex = "v"
	VarEdge   = "e"
	VarPath   = "p"
	VarParams = "params"
)

var (
	ErrCompile    = errors.New("expression does not compile")
	ErrNotBoolean = errors.New("expression is not boolean")
)

// Env is a compilation environment. It is safe for concurrent use.
type Env struct {
	env *cel.Env
}

// NewEnv declares the traversal variables.
func NewEnv() (*Env, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar(VarVertex, decls.Dyn),
			decls.NewVar(VarEdge, decls.Dyn),
			decls.NewVar(VarPath, decls.Dyn),
			decls.NewVar(VarParams, decls.NewMapType(decls.String, decls.Dyn)),
		),
		cel.CrossTypeNumericComparisons(true),
		cel.EnableMacroCallTracking(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &Env{env: env}, nil
}

// Expr is a compiled expression.
type Expr struct {
	Source string
	ast    *cel.Ast
	prg    cel.Program
}

// Compile parses, checks and plans src.
func (e *Env) Compile(src string) (*Expr, error) {
	ast, issues := e.env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCompile, src, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCompile, src, err)
	}
	return &Expr{Source: src, ast: ast, prg: prg}, nil
}

func (x *Expr) String() string { return x.Source }

// Activation binds the variables for one evaluation. Unset fields are null.
type Activation struct {
	Vertex graph.Document
	Edge   graph.Document
	Path   *traversal.Path
	Params map[string]any
}

// ForResult binds v, e and p to a traversal result.
func ForResult(r *traversal.Result, params map[string]any) Activation {
	return Activation{Vertex: r.Vertex, Edge: r.Edge, Path: r.Path, Params: params}
}

func (a Activation) vars() map[string]any {
	params := a.Params
	if params == nil {
		params = map[string]any{}
	}
	return map[string]any{
		VarVertex: docValue(a.Vertex),
		VarEdge:   docValue(a.Edge),
		VarPath:   pathValue(a.Path),
		VarParams: params,
	}
}

// docValue hands CEL a plain map. A nil document must become null, not an
// empty map.
func docValue(d graph.Document) any {
	if d == nil {
		return nil
	}
	return map[string]any(d)
}

func pathValue(p *traversal.Path) any {
	if p == nil {
		return nil
	}
	vertices := make([]any, len(p.Vertices))
	for i, v := range p.Vertices {
		vertices[i] = docValue(v)
	}
	edges := make([]any, len(p.Edges))
	for i, e := range p.Edges {
		edges[i] = docValue(e)
	}
	return map[string]any{"vertices": vertices, "edges": edges}
}

// Eval returns the value of the expression as plain Go data: nil, bool,
// int64, uint64, float64, string, []byte, []any or map[string]any.
func (x *Expr) Eval(a Activation) (any, error) {
	out, _, err := x.prg.Eval(a.vars())
	if err != nil {
		return nil, err
	}
	return ToNative(out), nil
}

// Match evaluates a condition. Non-boolean results are an error.
func (x *Expr) Match(a Activation) (bool, error) {
	out, _, err := x.prg.Eval(a.vars())
	if err != nil {
		return false, err
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("%w: %s gives %s", ErrNotBoolean, x.Source, out.Type().TypeName())
	}
	return bool(b), nil
}

// ToNative converts a CEL value to plain Go data.
func ToNative(val ref.Val) any {
	switch v := val.(type) {
	case types.Null:
		return nil
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case traits.Mapper:
		out := make(map[string]any)
		it := v.Iterator()
		for it.HasNext() == types.True {
			k := it.Next()
			out[fmt.Sprint(ToNative(k))] = ToNative(v.Get(k))
		}
		return out
	case traits.Lister:
		n, _ := v.Size().(types.Int)
		out := make([]any, int(n))
		for i := range out {
			out[i] = ToNative(v.Get(types.Int(i)))
		}
		return out
	}
	return val.Value()
}
