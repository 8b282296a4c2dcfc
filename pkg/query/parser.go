package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
)

const maxVars = 3

// clauseKeywords end an expression.
var clauseKeywords = []string{"FILTER", "PRUNE", "SORT", "LIMIT", "RETURN", "OPTIONS"}

type parser struct {
	toks   []token
	pos    int
	stmt   *Statement
	params map[string]bool
}

// Parse parses one statement. Every error it returns is a *ParseError.
func Parse(src string) (*Statement, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Options: Options{UniqueVertices: traversal.UniqueNone, UniqueEdges: traversal.UniquePath}}
	p := &parser{toks: toks, stmt: stmt, params: make(map[string]bool)}
	if err := p.statement(); err != nil {
		return nil, err
	}
	return p.stmt, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) prev() token {
	if p.pos == 0 {
		return token{}
	}
	return p.toks[p.pos-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expectKeyword(kw string) error {
	t := p.next()
	if !t.keyword(kw) {
		return tokenError(t, "expected %s, got %s", kw, t.describe())
	}
	return nil
}

func (p *parser) expectPunct(punct string) error {
	t := p.next()
	if !t.is(punct) {
		return tokenError(t, "expected '%s', got %s", punct, t.describe())
	}
	return nil
}

func directionOf(t token) (graph.Direction, bool) {
	if t.kind != tokIdent {
		return graph.DirectionDefault, false
	}
	switch strings.ToUpper(t.text) {
	case "OUTBOUND":
		return graph.Outbound, true
	case "INBOUND":
		return graph.Inbound, true
	case "ANY":
		return graph.Any, true
	}
	return graph.DirectionDefault, false
}

func isClauseKeyword(t token) bool {
	for _, kw := range clauseKeywords {
		if t.keyword(kw) {
			return true
		}
	}
	return false
}

func (p *parser) statement() error {
	if err := p.expectKeyword("FOR"); err != nil {
		return err
	}
	if err := p.variables(); err != nil {
		return err
	}
	if err := p.expectKeyword("IN"); err != nil {
		return err
	}
	if err := p.depth(); err != nil {
		return err
	}
	if err := p.direction(); err != nil {
		return err
	}
	if err := p.start(); err != nil {
		return err
	}
	if err := p.source(); err != nil {
		return err
	}
	if p.peek().keyword("PRUNE") {
		p.next()
		cond, err := p.expression(nil)
		if err != nil {
			return err
		}
		p.stmt.Prune = cond
	}
	if p.peek().keyword("OPTIONS") {
		if err := p.options(); err != nil {
			return err
		}
	}
	return p.clauses()
}

func (p *parser) variables() error {
	var names []string
	for {
		t := p.next()
		if t.kind != tokIdent || t.keyword("IN") {
			return tokenError(t, "expected variable name, got %s", t.describe())
		}
		for _, n := range names {
			if n == t.text {
				return tokenError(t, "variable %s declared twice", t.text)
			}
		}
		names = append(names, t.text)
		if len(names) > maxVars {
			return tokenError(t, "a traversal has at most %d output variables", maxVars)
		}
		if !p.peek().is(",") {
			break
		}
		p.next()
	}
	p.stmt.Vars.Vertex = names[0]
	if len(names) > 1 {
		p.stmt.Vars.Edge = names[1]
	}
	if len(names) > 2 {
		p.stmt.Vars.Path = names[2]
	}
	return nil
}

func (p *parser) depth() error {
	p.stmt.Depth = traversal.DepthRange{Min: 1, Max: 1}
	if _, ok := directionOf(p.peek()); ok {
		return nil
	}
	min, err := p.depthBound()
	if err != nil {
		return err
	}
	max := min
	if p.peek().is("..") {
		p.next()
		if max, err = p.depthBound(); err != nil {
			return err
		}
	}
	p.stmt.Depth = traversal.DepthRange{Min: min, Max: max}
	if min > max {
		return tokenError(p.prev(), "min depth %d is greater than max depth %d", min, max)
	}
	return nil
}

func (p *parser) depthBound() (int, error) {
	t := p.next()
	switch {
	case t.kind == tokInt:
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return 0, tokenError(t, "depth %s out of range", t.text)
		}
		return n, nil
	case t.kind == tokFloat:
		return 0, tokenError(t, "depth must be an integer, got %s", t.text)
	case t.kind == tokString:
		return 0, tokenError(t, "depth must be a number, got %s", t.describe())
	case t.is("("):
		return 0, tokenError(t, "depth cannot be a subquery")
	case t.is("-"):
		return 0, tokenError(t, "depth cannot be negative")
	}
	return 0, tokenError(t, "expected depth or direction, got %s", t.describe())
}

func (p *parser) direction() error {
	t := p.next()
	dir, ok := directionOf(t)
	if !ok {
		return tokenError(t, "expected OUTBOUND, INBOUND or ANY, got %s", t.describe())
	}
	if _, again := directionOf(p.peek()); again {
		return tokenError(p.peek(), "only one direction may be given, got %s after %s", p.peek().text, t.text)
	}
	p.stmt.Direction = dir
	return nil
}

func (p *parser) start() error {
	t := p.peek()
	switch {
	case t.kind == tokString:
		p.next()
		s, err := unquote(t.text)
		if err != nil {
			return tokenError(t, "bad string literal: %v", err)
		}
		p.stmt.Start = Value{Literal: s}
		return nil
	case t.kind == tokParam:
		p.next()
		p.useParam(t.text)
		p.stmt.Start = Value{Param: t.text}
		return nil
	case t.is("{") || t.is("["):
		lit, err := p.literal()
		if err != nil {
			return err
		}
		p.stmt.Start = Value{Literal: lit}
		return nil
	case t.kind == tokEOF, t.keyword("GRAPH"), isClauseKeyword(t):
		return tokenError(t, "missing start vertex")
	case t.keyword("null"):
		return tokenError(t, "start vertex cannot be null")
	case t.kind == tokInt, t.kind == tokFloat, t.is("-"):
		return tokenError(t, "start vertex cannot be a number")
	case t.kind == tokIdent:
		return tokenError(t, "unknown variable %s used as start vertex", t.text)
	}
	return tokenError(t, "unexpected %s as start vertex", t.describe())
}

func (p *parser) source() error {
	if p.peek().keyword("GRAPH") {
		p.next()
		t := p.next()
		switch t.kind {
		case tokString:
			name, err := unquote(t.text)
			if err != nil {
				return tokenError(t, "bad string literal: %v", err)
			}
			p.stmt.Graph = &Value{Literal: name}
		case tokParam:
			p.useParam(t.text)
			p.stmt.Graph = &Value{Param: t.text}
		case tokIdent:
			if isClauseKeyword(t) {
				return tokenError(t, "missing graph name")
			}
			p.stmt.Graph = &Value{Literal: t.text}
		default:
			return tokenError(t, "expected graph name, got %s", t.describe())
		}
		return nil
	}

	for {
		var c CollectionClause
		t := p.peek()
		if dir, ok := directionOf(t); ok {
			p.next()
			if _, again := directionOf(p.peek()); again {
				return tokenError(p.peek(), "only one direction may be given per collection")
			}
			c.Direction = dir
			t = p.peek()
		}
		switch {
		case t.kind == tokCollParam:
			c.Param = t.text
		case t.kind == tokString:
			name, err := unquote(t.text)
			if err != nil {
				return tokenError(t, "bad string literal: %v", err)
			}
			c.Name = name
		case t.kind == tokIdent && !isClauseKeyword(t):
			c.Name = t.text
		default:
			if len(p.stmt.Collections) == 0 && c.Direction == graph.DirectionDefault {
				return tokenError(t, "expected GRAPH or edge collections, got %s", t.describe())
			}
			return tokenError(t, "expected edge collection, got %s", t.describe())
		}
		p.next()
		p.stmt.Collections = append(p.stmt.Collections, c)
		if !p.peek().is(",") {
			return nil
		}
		p.next()
	}
}

func (p *parser) options() error {
	kw := p.next()
	lit, err := p.literal()
	if err != nil {
		return err
	}
	obj, ok := lit.(map[string]any)
	if !ok {
		return tokenError(kw, "OPTIONS must be an object")
	}

	o := p.stmt.Options
	for key, val := range obj {
		switch key {
		case "bfs":
			b, ok := val.(bool)
			if !ok {
				return tokenError(kw, "option bfs must be a boolean")
			}
			o.BFS = b
		case "order":
			s, _ := val.(string)
			switch s {
			case "bfs":
				o.BFS = true
			case "dfs":
				o.BFS = false
			default:
				return tokenError(kw, "option order must be \"bfs\" or \"dfs\"")
			}
		case "uniqueVertices", "uniqueEdges":
			s, _ := val.(string)
			u, err := traversal.ParseUniqueness(s)
			if err != nil {
				return tokenError(kw, "option %s: %v", key, err)
			}
			if key == "uniqueVertices" {
				o.UniqueVertices = u
			} else {
				o.UniqueEdges = u
			}
		case "directions":
			list, ok := val.([]any)
			if !ok {
				return tokenError(kw, "option directions must be a list")
			}
			for _, item := range list {
				s, _ := item.(string)
				d, err := graph.ParseDirection(s)
				if err != nil || d == graph.DirectionDefault {
					return tokenError(kw, "option directions: bad direction %v", item)
				}
				o.Directions = append(o.Directions, d)
			}
		default:
			return tokenError(kw, "unknown option %s", key)
		}
	}
	p.stmt.Options = o
	return nil
}

func (p *parser) clauses() error {
	sawSort, sawLimit := false, false
	for {
		t := p.next()
		switch {
		case t.keyword("FILTER"):
			if sawSort || sawLimit {
				return tokenError(t, "FILTER must come before SORT and LIMIT")
			}
			cond, err := p.expression(nil)
			if err != nil {
				return err
			}
			p.stmt.Filters = append(p.stmt.Filters, cond)

		case t.keyword("PRUNE"):
			if p.stmt.Prune != "" {
				return tokenError(t, "PRUNE given twice")
			}
			if sawSort || sawLimit {
				return tokenError(t, "PRUNE must come before SORT and LIMIT")
			}
			cond, err := p.expression(nil)
			if err != nil {
				return err
			}
			p.stmt.Prune = cond

		case t.keyword("SORT"):
			if sawSort || sawLimit {
				return tokenError(t, "SORT must come once and before LIMIT")
			}
			sawSort = true
			if err := p.sortKeys(); err != nil {
				return err
			}

		case t.keyword("LIMIT"):
			if sawLimit {
				return tokenError(t, "LIMIT given twice")
			}
			sawLimit = true
			if err := p.limit(); err != nil {
				return err
			}

		case t.keyword("RETURN"):
			ret, err := p.expression(nil)
			if err != nil {
				return err
			}
			p.stmt.Return = ret
			if end := p.next(); end.kind != tokEOF {
				return tokenError(end, "unexpected %s after RETURN", end.describe())
			}
			p.stmt.Params = p.paramList()
			return nil

		case t.kind == tokEOF:
			return tokenError(t, "missing RETURN")

		default:
			return tokenError(t, "unexpected %s", t.describe())
		}
	}
}

func (p *parser) sortKeys() error {
	for {
		src, err := p.expression(func(t token) bool { return t.keyword("ASC") || t.keyword("DESC") || t.is(",") })
		if err != nil {
			return err
		}
		key := SortKey{Expr: src}
		if t := p.peek(); t.keyword("ASC") || t.keyword("DESC") {
			key.Desc = t.keyword("DESC")
			p.next()
		}
		p.stmt.Sort = append(p.stmt.Sort, key)
		if !p.peek().is(",") {
			return nil
		}
		p.next()
	}
}

func (p *parser) limit() error {
	first, err := p.count()
	if err != nil {
		return err
	}
	l := &Limit{Count: first}
	if p.peek().is(",") {
		p.next()
		second, err := p.count()
		if err != nil {
			return err
		}
		l.Offset, l.Count = first, second
	}
	p.stmt.Limit = l
	return nil
}

func (p *parser) count() (int, error) {
	t := p.next()
	if t.kind != tokInt {
		return 0, tokenError(t, "LIMIT needs a non-negative integer, got %s", t.describe())
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, tokenError(t, "LIMIT value %s out of range", t.text)
	}
	return n, nil
}

// expression collects tokens up to the next clause keyword at nesting
// depth zero, or a token for which stop returns true, and translates them
// to CEL.
func (p *parser) expression(stop func(token) bool) (string, error) {
	first := p.peek()
	var (
		b     strings.Builder
		open  []string
		last  token
		n     int
	)
	for {
		t := p.peek()
		if t.kind == tokEOF {
			break
		}
		afterDot := last.is(".")
		if len(open) == 0 && !afterDot && (isClauseKeyword(t) || (stop != nil && stop(t))) {
			break
		}
		// object keys are names, CEL wants them as strings
		objectKey := t.kind == tokIdent && len(open) > 0 && open[len(open)-1] == "{" &&
			(last.is("{") || last.is(",")) && p.toks[p.pos+1].is(":")
		switch {
		case t.is("("), t.is("["), t.is("{"):
			open = append(open, t.text)
		case t.is(")"), t.is("]"), t.is("}"):
			if len(open) == 0 {
				return "", tokenError(t, "unbalanced %s", t.text)
			}
			open = open[:len(open)-1]
		}

		out, err := p.translate(t, afterDot)
		if objectKey {
			out, err = strconv.Quote(t.text), nil
		}
		if err != nil {
			return "", err
		}
		if n > 0 && needsSpace(last, t) {
			b.WriteByte(' ')
		}
		b.WriteString(out)
		last = t
		n++
		p.next()
	}
	if len(open) != 0 {
		return "", tokenError(p.peek(), "unbalanced brackets in expression")
	}
	if n == 0 {
		return "", tokenError(first, "expected expression, got %s", first.describe())
	}
	return b.String(), nil
}

func (p *parser) translate(t token, afterDot bool) (string, error) {
	switch t.kind {
	case tokParam:
		p.useParam(t.text)
		return "params." + t.text, nil
	case tokCollParam:
		return "", tokenError(t, "collection parameter @@%s cannot be used in an expression", t.text)
	case tokString:
		s, err := unquote(t.text)
		if err != nil {
			return "", tokenError(t, "bad string literal: %v", err)
		}
		return strconv.Quote(s), nil
	case tokIdent:
		if afterDot {
			return t.text, nil
		}
		switch strings.ToUpper(t.text) {
		case "AND":
			return "&&", nil
		case "OR":
			return "||", nil
		case "NOT":
			return "!", nil
		case "IN":
			return "in", nil
		case "TRUE", "FALSE", "NULL":
			return strings.ToLower(t.text), nil
		}
		vars := p.stmt.Vars
		switch t.text {
		case vars.Vertex:
			return "v", nil
		case vars.Edge:
			return "e", nil
		case vars.Path:
			return "p", nil
		}
		switch t.text {
		case "v", "e", "p", "params":
			return "", tokenError(t, "%s is reserved and not declared by this statement", t.text)
		}
	}
	return t.text, nil
}

func needsSpace(prev, cur token) bool {
	switch {
	case prev.is("."), prev.is("("), prev.is("["), prev.is("{"), prev.is("!"):
		return false
	case cur.is("."), cur.is(","), cur.is(")"), cur.is("]"), cur.is("}"), cur.is(":"):
		return false
	case (cur.is("(") || cur.is("[")) && (prev.kind == tokIdent || prev.is(")") || prev.is("]")):
		return prev.keyword("IN") || prev.keyword("AND") || prev.keyword("OR") || prev.keyword("NOT")
	}
	return true
}

func (p *parser) useParam(name string) { p.params[name] = true }

func (p *parser) paramList() []string {
	out := make([]string, 0, len(p.params))
	for name := range p.params {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// literal parses a JSON-like object or array literal. Bind parameters
// inside it are kept as references.
func (p *parser) literal() (any, error) {
	t := p.next()
	switch {
	case t.is("{"):
		obj := make(map[string]any)
		if p.peek().is("}") {
			p.next()
			return obj, nil
		}
		for {
			k := p.next()
			var key string
			switch k.kind {
			case tokIdent:
				key = k.text
			case tokString:
				s, err := unquote(k.text)
				if err != nil {
					return nil, tokenError(k, "bad string literal: %v", err)
				}
				key = s
			default:
				return nil, tokenError(k, "expected object key, got %s", k.describe())
			}
			if err := p.expectPunct(":"); err != nil {
				return nil, err
			}
			val, err := p.literal()
			if err != nil {
				return nil, err
			}
			obj[key] = val
			if p.peek().is(",") {
				p.next()
				continue
			}
			if err := p.expectPunct("}"); err != nil {
				return nil, err
			}
			return obj, nil
		}

	case t.is("["):
		list := []any{}
		if p.peek().is("]") {
			p.next()
			return list, nil
		}
		for {
			val, err := p.literal()
			if err != nil {
				return nil, err
			}
			list = append(list, val)
			if p.peek().is(",") {
				p.next()
				continue
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			return list, nil
		}

	case t.kind == tokString:
		s, err := unquote(t.text)
		if err != nil {
			return nil, tokenError(t, "bad string literal: %v", err)
		}
		return s, nil

	case t.kind == tokInt:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, tokenError(t, "integer %s out of range", t.text)
		}
		return n, nil

	case t.kind == tokFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, tokenError(t, "bad number %s", t.text)
		}
		return f, nil

	case t.is("-"):
		val, err := p.literal()
		if err != nil {
			return nil, err
		}
		switch n := val.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, tokenError(t, "'-' must be followed by a number")

	case t.kind == tokParam:
		p.useParam(t.text)
		return paramRef{name: t.text}, nil

	case t.keyword("true"):
		return true, nil
	case t.keyword("false"):
		return false, nil
	case t.keyword("null"):
		return nil, nil
	}
	return nil, tokenError(t, "expected literal value, got %s", t.describe())
}
