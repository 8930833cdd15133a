package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/rfielding/kripke-smv/kripke"
)

// converter turns expression source into kripke formulas. Identifiers
// resolve to declared variables first, then defines, then domain values.
type converter struct {
	vars    map[string]kripke.Variable
	defines map[string]kripke.Formula
	kind    kripke.ErrorKind
	src     string
}

func (c *converter) errorf(format string, args ...any) error {
	return &kripke.Error{
		Kind:    c.kind,
		Formula: c.src,
		Msg:     fmt.Sprintf(format, args...),
	}
}

// parse converts src. Defects are reported under the converter's kind.
func (c *converter) parse(src string) (kripke.Formula, error) {
	c.src = strings.TrimSpace(src)
	if c.src == "" {
		return nil, c.errorf("empty expression")
	}
	tree, err := parser.Parse(c.src)
	if err != nil {
		return nil, c.errorf("%v", err)
	}
	return c.formula(tree.Node)
}

var pathOps = map[string]func(kripke.Formula) kripke.Formula{
	"AG": func(f kripke.Formula) kripke.Formula { return kripke.AG{F: f} },
	"AF": func(f kripke.Formula) kripke.Formula { return kripke.AF{F: f} },
	"AX": func(f kripke.Formula) kripke.Formula { return kripke.AX{F: f} },
	"EG": func(f kripke.Formula) kripke.Formula { return kripke.EG{F: f} },
	"EF": func(f kripke.Formula) kripke.Formula { return kripke.EF{F: f} },
	"EX": func(f kripke.Formula) kripke.Formula { return kripke.EX{F: f} },
}

var pairOps = map[string]func(l, r kripke.Formula) kripke.Formula{
	"EU":      func(l, r kripke.Formula) kripke.Formula { return kripke.EU{Left: l, Right: r} },
	"AU":      func(l, r kripke.Formula) kripke.Formula { return kripke.AU{Left: l, Right: r} },
	"implies": func(l, r kripke.Formula) kripke.Formula { return kripke.Implies{Left: l, Right: r} },
}

func (c *converter) formula(n ast.Node) (kripke.Formula, error) {
	switch n := n.(type) {
	case *ast.BoolNode:
		if n.Value {
			return kripke.True{}, nil
		}
		return kripke.False{}, nil
	case *ast.IdentifierNode, *ast.MemberNode:
		name, ok := c.name(n)
		if !ok {
			return nil, c.errorf("unsupported reference %s", n)
		}
		return c.ref(name)
	case *ast.UnaryNode:
		switch n.Operator {
		case "!", "not":
			f, err := c.formula(n.Node)
			if err != nil {
				return nil, err
			}
			return kripke.Not{F: f}, nil
		}
		return nil, c.errorf("unsupported operator %q", n.Operator)
	case *ast.BinaryNode:
		return c.binary(n)
	case *ast.CallNode:
		return c.call(n)
	}
	return nil, c.errorf("unsupported expression %s", n)
}

func (c *converter) ref(name string) (kripke.Formula, error) {
	switch name {
	case kripke.BoolTrue:
		return kripke.True{}, nil
	case kripke.BoolFalse:
		return kripke.False{}, nil
	}
	if v, ok := c.vars[name]; ok {
		if !v.IsBool() {
			return nil, c.errorf("%s is not boolean; compare it to a value", name)
		}
		return kripke.Bool{Var: name}, nil
	}
	if f, ok := c.defines[name]; ok {
		return f, nil
	}
	return nil, c.errorf("undeclared name %q", name)
}

func (c *converter) binary(n *ast.BinaryNode) (kripke.Formula, error) {
	switch n.Operator {
	case "and", "&&", "or", "||":
		l, err := c.formula(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.formula(n.Right)
		if err != nil {
			return nil, err
		}
		if n.Operator == "and" || n.Operator == "&&" {
			return kripke.And{Left: l, Right: r}, nil
		}
		return kripke.Or{Left: l, Right: r}, nil
	case "==":
		return c.compare(n.Left, n.Right)
	case "!=":
		f, err := c.compare(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return kripke.Not{F: f}, nil
	case "in":
		return c.in(n.Left, n.Right)
	}
	return nil, c.errorf("unsupported operator %q", n.Operator)
}

// compare builds var = value, var = var, or a comparison of a predicate
// with a boolean constant.
func (c *converter) compare(left, right ast.Node) (kripke.Formula, error) {
	if name, ok := c.variable(left); ok {
		return c.equal(name, right)
	}
	if name, ok := c.variable(right); ok {
		return c.equal(name, left)
	}
	if b, ok := c.constant(right); ok {
		f, err := c.formula(left)
		if err != nil {
			return nil, err
		}
		if b {
			return f, nil
		}
		return kripke.Not{F: f}, nil
	}
	return nil, c.errorf("comparison %s == %s names no variable", left, right)
}

func (c *converter) equal(name string, other ast.Node) (kripke.Formula, error) {
	if o, ok := c.variable(other); ok {
		return kripke.Same{Left: name, Right: o}, nil
	}
	val, ok := c.value(other)
	if !ok {
		return nil, c.errorf("cannot compare %s with %s", name, other)
	}
	return kripke.Eq{Var: name, Value: normalize(c.vars[name], val)}, nil
}

func (c *converter) in(left, right ast.Node) (kripke.Formula, error) {
	name, ok := c.variable(left)
	if !ok {
		return nil, c.errorf("left side of in must be a variable, got %s", left)
	}
	arr, ok := right.(*ast.ArrayNode)
	if !ok {
		return nil, c.errorf("right side of in must be a list, got %s", right)
	}
	in := kripke.In{Var: name}
	for _, el := range arr.Nodes {
		val, ok := c.value(el)
		if !ok {
			return nil, c.errorf("%s is not a value", el)
		}
		in.Values = append(in.Values, normalize(c.vars[name], val))
	}
	return in, nil
}

func (c *converter) call(n *ast.CallNode) (kripke.Formula, error) {
	callee, ok := n.Callee.(*ast.IdentifierNode)
	if !ok {
		return nil, c.errorf("unsupported call %s", n)
	}
	args := make([]kripke.Formula, len(n.Arguments))
	for i, a := range n.Arguments {
		f, err := c.formula(a)
		if err != nil {
			return nil, err
		}
		args[i] = f
	}
	if op, ok := pathOps[callee.Value]; ok {
		if len(args) != 1 {
			return nil, c.errorf("%s takes one argument, got %d", callee.Value, len(args))
		}
		return op(args[0]), nil
	}
	if op, ok := pairOps[callee.Value]; ok {
		if len(args) != 2 {
			return nil, c.errorf("%s takes two arguments, got %d", callee.Value, len(args))
		}
		return op(args[0], args[1]), nil
	}
	return nil, c.errorf("unknown operator %s", callee.Value)
}

// name renders identifiers and member paths: x, a[1], a.b.
func (c *converter) name(n ast.Node) (string, bool) {
	switch n := n.(type) {
	case *ast.IdentifierNode:
		return n.Value, true
	case *ast.MemberNode:
		base, ok := c.name(n.Node)
		if !ok {
			return "", false
		}
		switch p := n.Property.(type) {
		case *ast.IntegerNode:
			return fmt.Sprintf("%s[%d]", base, p.Value), true
		case *ast.StringNode:
			return base + "." + p.Value, true
		}
	}
	return "", false
}

func (c *converter) variable(n ast.Node) (string, bool) {
	name, ok := c.name(n)
	if !ok {
		return "", false
	}
	_, ok = c.vars[name]
	return name, ok
}

// value reads a domain value: a bare word, a string, a number or a
// boolean literal.
func (c *converter) value(n ast.Node) (string, bool) {
	switch n := n.(type) {
	case *ast.IdentifierNode:
		return n.Value, true
	case *ast.StringNode:
		return n.Value, true
	case *ast.IntegerNode:
		return strconv.Itoa(n.Value), true
	case *ast.BoolNode:
		if n.Value {
			return kripke.BoolTrue, true
		}
		return kripke.BoolFalse, true
	}
	return "", false
}

func (c *converter) constant(n ast.Node) (bool, bool) {
	switch n := n.(type) {
	case *ast.BoolNode:
		return n.Value, true
	case *ast.IdentifierNode:
		switch n.Value {
		case kripke.BoolTrue:
			return true, true
		case kripke.BoolFalse:
			return false, true
		}
	}
	return false, false
}

// normalize maps any spelling of true or false onto the boolean domain.
func normalize(v kripke.Variable, val string) string {
	if !v.IsBool() {
		return val
	}
	switch strings.ToLower(val) {
	case "true":
		return kripke.BoolTrue
	case "false":
		return kripke.BoolFalse
	}
	return val
}
