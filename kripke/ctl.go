package kripke

import (
	"fmt"
	"strings"
)

// Formula is a CTL state formula. Formulas without temporal operators are
// plain state predicates and also serve as rule guards and initial
// predicates.
type Formula interface {
	String() string
}

// True is the constant TRUE.
type True struct{}

func (True) String() string { return "TRUE" }

// False is the constant FALSE.
type False struct{}

func (False) String() string { return "FALSE" }

// Eq holds when Var currently has Value.
type Eq struct {
	Var, Value string
}

func (e Eq) String() string { return fmt.Sprintf("%s = %s", e.Var, e.Value) }

// In holds when Var currently has one of Values.
type In struct {
	Var    string
	Values []string
}

func (in In) String() string {
	return fmt.Sprintf("%s in {%s}", in.Var, strings.Join(in.Values, ", "))
}

// Same holds when two variables over one domain currently agree.
type Same struct {
	Left, Right string
}

func (s Same) String() string { return fmt.Sprintf("%s = %s", s.Left, s.Right) }

// Bool is a bare reference to a boolean variable; it means Var = TRUE.
type Bool struct {
	Var string
}

func (b Bool) String() string { return b.Var }

// Not represents negation
type Not struct {
	F Formula
}

func (n Not) String() string { return fmt.Sprintf("!%s", paren(n.F)) }

// And represents conjunction
type And struct {
	Left, Right Formula
}

func (a And) String() string { return fmt.Sprintf("(%s & %s)", a.Left, a.Right) }

// Or represents disjunction
type Or struct {
	Left, Right Formula
}

func (o Or) String() string { return fmt.Sprintf("(%s | %s)", o.Left, o.Right) }

// Implies represents implication
type Implies struct {
	Left, Right Formula
}

func (i Implies) String() string { return fmt.Sprintf("(%s -> %s)", i.Left, i.Right) }

// EX: some successor satisfies F.
type EX struct {
	F Formula
}

func (e EX) String() string { return "EX " + paren(e.F) }

// AX: every successor satisfies F.
type AX struct {
	F Formula
}

func (a AX) String() string { return "AX " + paren(a.F) }

// EF: some path eventually reaches F.
type EF struct {
	F Formula
}

func (e EF) String() string { return "EF " + paren(e.F) }

// AF: every path eventually reaches F.
type AF struct {
	F Formula
}

func (a AF) String() string { return "AF " + paren(a.F) }

// EG: some path stays in F forever.
type EG struct {
	F Formula
}

func (e EG) String() string { return "EG " + paren(e.F) }

// AG: every path stays in F forever.
type AG struct {
	F Formula
}

func (a AG) String() string { return "AG " + paren(a.F) }

// EU: some path keeps Left until Right holds.
type EU struct {
	Left, Right Formula
}

func (e EU) String() string { return fmt.Sprintf("E[%s U %s]", e.Left, e.Right) }

// AU: every path keeps Left until Right holds.
type AU struct {
	Left, Right Formula
}

func (a AU) String() string { return fmt.Sprintf("A[%s U %s]", a.Left, a.Right) }

// paren wraps atoms that would otherwise read ambiguously after a prefix
// operator.
func paren(f Formula) string {
	switch f.(type) {
	case Eq, Same, In:
		return "(" + f.String() + ")"
	}
	return f.String()
}

// Ands folds fs into nested conjunctions. An empty list is TRUE.
func Ands(fs ...Formula) Formula {
	if len(fs) == 0 {
		return True{}
	}
	out := fs[0]
	for _, f := range fs[1:] {
		out = And{Left: out, Right: f}
	}
	return out
}

// Ors folds fs into nested disjunctions. An empty list is FALSE.
func Ors(fs ...Formula) Formula {
	if len(fs) == 0 {
		return False{}
	}
	out := fs[0]
	for _, f := range fs[1:] {
		out = Or{Left: out, Right: f}
	}
	return out
}

// IsTemporal reports whether f contains a path quantifier anywhere.
func IsTemporal(f Formula) bool {
	switch f := f.(type) {
	case EX, AX, EF, AF, EG, AG, EU, AU:
		return true
	case Not:
		return IsTemporal(f.F)
	case And:
		return IsTemporal(f.Left) || IsTemporal(f.Right)
	case Or:
		return IsTemporal(f.Left) || IsTemporal(f.Right)
	case Implies:
		return IsTemporal(f.Left) || IsTemporal(f.Right)
	}
	return false
}

// IsExistential reports whether the outermost operator of f quantifies over
// some path, so that a holding verdict has a witness worth reporting.
func IsExistential(f Formula) bool {
	switch f.(type) {
	case EX, EF, EG, EU:
		return true
	}
	return false
}
