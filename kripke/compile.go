package kripke

import (
	"fmt"

	"go.uber.org/multierr"
)

type opcode uint8

const (
	opTrue opcode = iota
	opFalse
	opEq
	opIn
	opSame
	opNot
	opAnd
	opOr
	opImplies
	opEX
	opAX
	opEF
	opAF
	opEG
	opAG
	opEU
	opAU
)

// node is a formula bound to registry slots and value indices.
type node struct {
	op    opcode
	slot  int
	slot2 int
	val   uint8
	set   []bool
	kids  []*node
	src   Formula
}

func (n *node) temporal() bool { return n.op >= opEX }

// nested reports whether a temporal operator occurs anywhere under n.
func (n *node) nested() bool {
	if n.temporal() {
		return true
	}
	for _, k := range n.kids {
		if k.nested() {
			return true
		}
	}
	return false
}

// compiler binds formulas to a registry, collecting every unknown variable
// and out-of-domain value under one error kind.
type compiler struct {
	reg    *Registry
	kind   ErrorKind
	module string
	err    error
}

func (c *compiler) fail(f Formula, variable, format string, args ...any) {
	c.err = multierr.Append(c.err, &Error{
		Kind:     c.kind,
		Module:   c.module,
		Variable: variable,
		Formula:  f.String(),
		Msg:      fmt.Sprintf(format, args...),
	})
}

func (c *compiler) slot(f Formula, name string) (int, bool) {
	s, ok := c.reg.Slot(name)
	if !ok {
		c.fail(f, name, "undeclared variable %q", name)
	}
	return s, ok
}

func (c *compiler) compile(f Formula) *node {
	n := &node{src: f}
	switch f := f.(type) {
	case nil:
		c.err = multierr.Append(c.err, &Error{Kind: c.kind, Module: c.module, Msg: "missing formula"})
		n.op = opFalse
	case True:
		n.op = opTrue
	case False:
		n.op = opFalse
	case Eq:
		n.op = opEq
		if s, ok := c.slot(f, f.Var); ok {
			n.slot = s
			if v, ok := c.reg.Value(s, f.Value); ok {
				n.val = v
			} else {
				c.fail(f, f.Var, "value %q outside the domain of %s", f.Value, f.Var)
			}
		}
	case In:
		n.op = opIn
		if s, ok := c.slot(f, f.Var); ok {
			n.slot = s
			n.set = make([]bool, len(c.reg.Var(s).Values))
			for _, val := range f.Values {
				if v, ok := c.reg.Value(s, val); ok {
					n.set[v] = true
				} else {
					c.fail(f, f.Var, "value %q outside the domain of %s", val, f.Var)
				}
			}
		}
	case Same:
		n.op = opSame
		l, lok := c.slot(f, f.Left)
		r, rok := c.slot(f, f.Right)
		if lok && rok {
			n.slot, n.slot2 = l, r
			if !c.reg.Var(l).sameDomain(c.reg.Var(r)) {
				c.fail(f, f.Right, "%s and %s range over different domains", f.Left, f.Right)
			}
		}
	case Bool:
		n.op = opEq
		if s, ok := c.slot(f, f.Var); ok {
			n.slot = s
			if c.reg.Var(s).IsBool() {
				n.val = 1
			} else {
				c.fail(f, f.Var, "%s is not boolean", f.Var)
			}
		}
	case Not:
		n.op = opNot
		n.kids = []*node{c.compile(f.F)}
	case And:
		n.op = opAnd
		n.kids = []*node{c.compile(f.Left), c.compile(f.Right)}
	case Or:
		n.op = opOr
		n.kids = []*node{c.compile(f.Left), c.compile(f.Right)}
	case Implies:
		n.op = opImplies
		n.kids = []*node{c.compile(f.Left), c.compile(f.Right)}
	case EX:
		n.op = opEX
		n.kids = []*node{c.compile(f.F)}
	case AX:
		n.op = opAX
		n.kids = []*node{c.compile(f.F)}
	case EF:
		n.op = opEF
		n.kids = []*node{c.compile(f.F)}
	case AF:
		n.op = opAF
		n.kids = []*node{c.compile(f.F)}
	case EG:
		n.op = opEG
		n.kids = []*node{c.compile(f.F)}
	case AG:
		n.op = opAG
		n.kids = []*node{c.compile(f.F)}
	case EU:
		n.op = opEU
		n.kids = []*node{c.compile(f.Left), c.compile(f.Right)}
	case AU:
		n.op = opAU
		n.kids = []*node{c.compile(f.Left), c.compile(f.Right)}
	default:
		c.err = multierr.Append(c.err, &Error{
			Kind:    c.kind,
			Module:  c.module,
			Formula: fmt.Sprintf("%v", f),
			Msg:     fmt.Sprintf("unsupported formula type %T", f),
		})
		n.op = opFalse
	}
	return n
}

// compileFormula binds a CTL query; defects are MalformedFormula.
func compileFormula(reg *Registry, f Formula) (*node, error) {
	c := &compiler{reg: reg, kind: MalformedFormula}
	n := c.compile(f)
	if c.err != nil {
		return nil, c.err
	}
	return n, nil
}

// compilePredicate binds a state predicate owned by the model (a guard or
// the initial predicate); defects, including temporal operators, are
// MalformedModel.
func compilePredicate(reg *Registry, module string, f Formula) (*node, error) {
	c := &compiler{reg: reg, kind: MalformedModel, module: module}
	n := c.compile(f)
	if f != nil && IsTemporal(f) {
		c.fail(f, "", "temporal operator in a state predicate")
	}
	if c.err != nil {
		return nil, c.err
	}
	return n, nil
}

// eval decides a temporal-free node on one state vector.
func (n *node) eval(vec []uint8) bool {
	switch n.op {
	case opTrue:
		return true
	case opFalse:
		return false
	case opEq:
		return vec[n.slot] == n.val
	case opIn:
		return n.set[vec[n.slot]]
	case opSame:
		return vec[n.slot] == vec[n.slot2]
	case opNot:
		return !n.kids[0].eval(vec)
	case opAnd:
		return n.kids[0].eval(vec) && n.kids[1].eval(vec)
	case opOr:
		return n.kids[0].eval(vec) || n.kids[1].eval(vec)
	case opImplies:
		return !n.kids[0].eval(vec) || n.kids[1].eval(vec)
	}
	panic(fmt.Sprintf("kripke: %s evaluated as a state predicate", n.src))
}
