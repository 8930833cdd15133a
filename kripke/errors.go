package kripke

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies the structural defects that abort a check.
type ErrorKind int

const (
	IncompleteTransitionRelation ErrorKind = iota + 1
	StateSpaceOverflow
	MalformedFormula
	InitialStateUnsatisfiable
	MalformedModel
)

var (
	ErrIncompleteTransitionRelation = errors.New("incomplete transition relation")
	ErrStateSpaceOverflow           = errors.New("state space overflow")
	ErrMalformedFormula             = errors.New("malformed formula")
	ErrInitialStateUnsatisfiable    = errors.New("initial predicate is unsatisfiable")
	ErrMalformedModel               = errors.New("malformed model")
)

func (k ErrorKind) String() string {
	switch k {
	case IncompleteTransitionRelation:
		return "IncompleteTransitionRelation"
	case StateSpaceOverflow:
		return "StateSpaceOverflow"
	case MalformedFormula:
		return "MalformedFormula"
	case InitialStateUnsatisfiable:
		return "InitialStateUnsatisfiable"
	case MalformedModel:
		return "MalformedModel"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) sentinel() error {
	switch k {
	case IncompleteTransitionRelation:
		return ErrIncompleteTransitionRelation
	case StateSpaceOverflow:
		return ErrStateSpaceOverflow
	case MalformedFormula:
		return ErrMalformedFormula
	case InitialStateUnsatisfiable:
		return ErrInitialStateUnsatisfiable
	case MalformedModel:
		return ErrMalformedModel
	}
	return nil
}

// Error is a terminal defect in the supplied model or formula. It names the
// offending construct and matches its kind's sentinel under errors.Is.
type Error struct {
	Kind     ErrorKind
	Module   string
	Variable string
	Formula  string
	// State is the rendered state at which the defect showed up.
	State string
	// Count is the number of states reached when the cap was exceeded.
	Count int
	Msg   string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.sentinel().Error())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	var ctx []string
	if e.Module != "" {
		ctx = append(ctx, "module="+e.Module)
	}
	if e.Variable != "" {
		ctx = append(ctx, "variable="+e.Variable)
	}
	if e.Formula != "" {
		ctx = append(ctx, "formula="+e.Formula)
	}
	if e.State != "" {
		ctx = append(ctx, "state={"+e.State+"}")
	}
	if len(ctx) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(ctx, " "))
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Kind.sentinel() }

func modelErr(module, variable, format string, args ...any) *Error {
	return &Error{Kind: MalformedModel, Module: module, Variable: variable, Msg: fmt.Sprintf(format, args...)}
}
