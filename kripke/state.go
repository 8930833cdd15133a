package kripke

import (
	"bytes"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/segmentio/fasthash/fnv1a"
)

// StateID numbers a state in discovery order.
type StateID uint32

const noState = ^StateID(0)

// Pool interns state vectors. Vectors live back to back in one arena and are
// bucketed by their FNV-1a hash; equality is on the full vector.
type Pool struct {
	width   int
	n       int
	arena   []uint8
	buckets map[uint32][]StateID
}

func NewPool(width int) *Pool {
	return &Pool{
		width:   width,
		buckets: make(map[uint32][]StateID),
	}
}

func hashVec(vec []uint8) uint32 {
	h := fnv1a.Init32
	for _, x := range vec {
		h = fnv1a.AddUint32(h, uint32(x))
	}
	return h
}

// Intern returns the id of vec, adding a copy of it when unseen. fresh
// reports whether the state is new.
func (p *Pool) Intern(vec []uint8) (id StateID, fresh bool) {
	h := hashVec(vec)
	for _, id := range p.buckets[h] {
		if bytes.Equal(p.Vec(id), vec) {
			return id, false
		}
	}
	id = StateID(p.n)
	p.n++
	p.arena = append(p.arena, vec...)
	p.buckets[h] = append(p.buckets[h], id)
	return id, true
}

// Lookup finds vec without interning it.
func (p *Pool) Lookup(vec []uint8) (StateID, bool) {
	for _, id := range p.buckets[hashVec(vec)] {
		if bytes.Equal(p.Vec(id), vec) {
			return id, true
		}
	}
	return noState, false
}

// Vec returns the stored vector of id. Callers must not modify it.
func (p *Pool) Vec(id StateID) []uint8 {
	off := int(id) * p.width
	return p.arena[off : off+p.width : off+p.width]
}

func (p *Pool) Len() int { return p.n }

// Valuation is an immutable variable-to-value view of one state.
type Valuation struct {
	reg *Registry
	vec []uint8
}

func newValuation(reg *Registry, vec []uint8) Valuation {
	return Valuation{reg: reg, vec: append([]uint8(nil), vec...)}
}

// Get returns the value of the named variable.
func (v Valuation) Get(name string) (string, bool) {
	slot, ok := v.reg.Slot(name)
	if !ok {
		return "", false
	}
	return v.reg.Name(slot, v.vec[slot]), true
}

// Value returns the value held at slot.
func (v Valuation) Value(slot int) string { return v.reg.Name(slot, v.vec[slot]) }

// Len is the number of variables.
func (v Valuation) Len() int { return len(v.vec) }

func (v Valuation) Equal(o Valuation) bool { return bytes.Equal(v.vec, o.vec) }

type nameComparer struct{}

func (nameComparer) Compare(a, b string) int { return strings.Compare(a, b) }

// Map renders the state as a name-sorted variable-to-value map.
func (v Valuation) Map() *immutable.SortedMap[string, string] {
	b := immutable.NewSortedMapBuilder[string, string](nameComparer{})
	for slot := range v.vec {
		b.Set(v.reg.Var(slot).Name, v.Value(slot))
	}
	return b.Map()
}

// Diff lists the variables whose value differs from prev, in declaration
// order.
func (v Valuation) Diff(prev Valuation) []string {
	var out []string
	for slot := range v.vec {
		if slot >= len(prev.vec) || prev.vec[slot] != v.vec[slot] {
			out = append(out, v.reg.Var(slot).Name)
		}
	}
	return out
}

// String renders "x=a, y=b" in declaration order.
func (v Valuation) String() string {
	var sb strings.Builder
	for slot := range v.vec {
		if slot > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.reg.Var(slot).Name)
		sb.WriteByte('=')
		sb.WriteString(v.Value(slot))
	}
	return sb.String()
}
