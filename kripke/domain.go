package kripke

import (
	"fmt"

	"go.uber.org/multierr"
)

// Boolean domain values. FALSE sorts before TRUE.
const (
	BoolFalse = "FALSE"
	BoolTrue  = "TRUE"
)

// maxDomain bounds a domain so every value index fits in one byte of the
// state vector.
const maxDomain = 256

// Variable is a named state variable with an ordered, finite domain.
type Variable struct {
	Name   string
	Values []string
}

// BoolVar declares a boolean variable.
func BoolVar(name string) Variable {
	return Variable{Name: name, Values: []string{BoolFalse, BoolTrue}}
}

// EnumVar declares a variable over the given symbolic values, in order.
func EnumVar(name string, values ...string) Variable {
	return Variable{Name: name, Values: values}
}

// IsBool reports whether v has the boolean domain.
func (v Variable) IsBool() bool {
	return len(v.Values) == 2 && v.Values[0] == BoolFalse && v.Values[1] == BoolTrue
}

func (v Variable) sameDomain(o Variable) bool {
	if len(v.Values) != len(o.Values) {
		return false
	}
	for i := range v.Values {
		if v.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

// Registry assigns each variable a slot in the state vector and each value
// its index within the variable's domain. The declared order is canonical:
// it fixes hashing, printing and initial-state ordering.
type Registry struct {
	vars  []Variable
	slots map[string]int
	index []map[string]uint8
}

// NewRegistry validates vars and builds the registry. Every defect is
// reported, not just the first.
func NewRegistry(vars []Variable) (*Registry, error) {
	r := &Registry{
		slots: make(map[string]int, len(vars)),
	}
	var err error
	for _, v := range vars {
		if v.Name == "" {
			err = multierr.Append(err, modelErr("", "", "variable with empty name"))
			continue
		}
		if _, dup := r.slots[v.Name]; dup {
			err = multierr.Append(err, modelErr("", v.Name, "variable declared twice"))
			continue
		}
		if len(v.Values) == 0 {
			err = multierr.Append(err, modelErr("", v.Name, "empty domain"))
			continue
		}
		if len(v.Values) > maxDomain {
			err = multierr.Append(err, modelErr("", v.Name, "domain has %d values, at most %d supported", len(v.Values), maxDomain))
			continue
		}
		idx := make(map[string]uint8, len(v.Values))
		bad := false
		for i, val := range v.Values {
			if _, dup := idx[val]; dup {
				err = multierr.Append(err, modelErr("", v.Name, "value %q listed twice", val))
				bad = true
				break
			}
			idx[val] = uint8(i)
		}
		if bad {
			continue
		}
		r.slots[v.Name] = len(r.vars)
		r.vars = append(r.vars, Variable{Name: v.Name, Values: append([]string(nil), v.Values...)})
		r.index = append(r.index, idx)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Len is the number of variables, which is also the state vector width.
func (r *Registry) Len() int { return len(r.vars) }

// Var returns the variable stored at slot.
func (r *Registry) Var(slot int) Variable { return r.vars[slot] }

// Slot returns the state vector position of the named variable.
func (r *Registry) Slot(name string) (int, bool) {
	s, ok := r.slots[name]
	return s, ok
}

// Value returns the index of val within the domain of the variable at slot.
func (r *Registry) Value(slot int, val string) (uint8, bool) {
	i, ok := r.index[slot][val]
	return i, ok
}

// Name returns the symbolic value with index idx at slot.
func (r *Registry) Name(slot int, idx uint8) string {
	return r.vars[slot].Values[idx]
}

// Names lists the variable names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.vars))
	for i, v := range r.vars {
		out[i] = v.Name
	}
	return out
}

// inDomain reports whether every slot of vec holds a legal value index.
func (r *Registry) inDomain(vec []uint8) bool {
	if len(vec) != len(r.vars) {
		return false
	}
	for i, x := range vec {
		if int(x) >= len(r.vars[i].Values) {
			return false
		}
	}
	return true
}

func (r *Registry) String() string {
	return fmt.Sprintf("registry(%d vars)", len(r.vars))
}
