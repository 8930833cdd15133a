package kripke

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPoolIntern(t *testing.T) {
	p := NewPool(3)
	a, fresh := p.Intern([]uint8{0, 1, 2})
	if !fresh || a != 0 {
		t.Fatalf("Expected fresh id 0, got %d (fresh=%v)", a, fresh)
	}
	buf := []uint8{2, 1, 0}
	b, fresh := p.Intern(buf)
	if !fresh || b != 1 {
		t.Fatalf("Expected fresh id 1, got %d (fresh=%v)", b, fresh)
	}
	buf[0] = 9
	if diff := cmp.Diff([]uint8{2, 1, 0}, p.Vec(b)); diff != "" {
		t.Errorf("Pool kept a reference to the caller's buffer (-want +got):\n%s", diff)
	}
	again, fresh := p.Intern([]uint8{0, 1, 2})
	if fresh || again != a {
		t.Errorf("Expected existing id %d, got %d (fresh=%v)", a, again, fresh)
	}
	if _, ok := p.Lookup([]uint8{1, 1, 1}); ok {
		t.Error("Expected lookup of an unseen vector to fail")
	}
	if p.Len() != 2 {
		t.Errorf("Expected 2 states, got %d", p.Len())
	}
}

func TestPoolZeroWidth(t *testing.T) {
	p := NewPool(0)
	a, _ := p.Intern(nil)
	b, fresh := p.Intern([]uint8{})
	if fresh || a != b {
		t.Errorf("Expected the empty vector to intern once, got %d and %d", a, b)
	}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry([]Variable{
		EnumVar("door", "normal", "open", "locked"),
		BoolVar("pin"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	slot, ok := r.Slot("pin")
	if !ok || slot != 1 {
		t.Errorf("Expected pin at slot 1, got %d", slot)
	}
	if v, ok := r.Value(0, "locked"); !ok || v != 2 {
		t.Errorf("Expected locked at index 2, got %d", v)
	}
	if _, ok := r.Value(0, "ajar"); ok {
		t.Error("Expected ajar to be outside the domain")
	}
	if !r.Var(1).IsBool() || r.Var(0).IsBool() {
		t.Error("Expected only pin to be boolean")
	}
	if diff := cmp.Diff([]string{"door", "pin"}, r.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryDefects(t *testing.T) {
	_, err := NewRegistry([]Variable{
		EnumVar("x", "a", "a"),
		EnumVar("y"),
		BoolVar("z"),
		BoolVar("z"),
	})
	if !errors.Is(err, ErrMalformedModel) {
		t.Fatalf("Expected malformed model, got %v", err)
	}
}

func TestValuation(t *testing.T) {
	sys := scenarioA(t)
	v, err := sys.State(map[string]string{"x": "b"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got, _ := v.Get("x"); got != "b" {
		t.Errorf("Expected x=b, got %s", got)
	}
	m := v.Map()
	if got, ok := m.Get("x"); !ok || got != "b" {
		t.Errorf("Expected map entry x=b, got %s", got)
	}
	succ, err := sys.Successors(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(succ) != 1 || !succ[0].Equal(v) {
		t.Errorf("Expected x=b to only step to itself, got %v", succ)
	}
	if _, err := sys.State(map[string]string{"x": "c"}); err == nil {
		t.Error("Expected an out-of-domain value to be rejected")
	}
	if _, err := sys.State(map[string]string{}); err == nil {
		t.Error("Expected a missing variable to be rejected")
	}
}

func TestHolds(t *testing.T) {
	sys := scenarioA(t)
	v, _ := sys.State(map[string]string{"x": "a"})
	ok, err := sys.Holds(In{"x", []string{"a", "b"}}, v)
	if err != nil || !ok {
		t.Errorf("Expected x in {a, b} to hold, got %v (%v)", ok, err)
	}
	if _, err := sys.Holds(EF{Eq{"x", "b"}}, v); !errors.Is(err, ErrMalformedFormula) {
		t.Errorf("Expected temporal formula to be rejected, got %v", err)
	}
}

func TestSuccessorOrder(t *testing.T) {
	sys, err := NewSystem(&Model{
		Vars: []Variable{EnumVar("x", "a", "b"), EnumVar("y", "a", "b")},
		Modules: []Module{
			{Name: "mx", Assigns: []Assign{{Var: "x", Rules: []Rule{{Next: []Term{Lit("a"), Lit("b")}}}}}},
			{Name: "my", Assigns: []Assign{{Var: "y", Rules: []Rule{{Next: []Term{Ref("x"), Lit("b")}}}}}},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	v, _ := sys.State(map[string]string{"x": "a", "y": "a"})
	succ, err := sys.Successors(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var got []string
	for _, s := range succ {
		got = append(got, s.String())
	}
	want := []string{"x=a, y=a", "x=a, y=b", "x=b, y=a", "x=b, y=b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Successors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"y"}, succ[1].Diff(succ[0])); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
}
