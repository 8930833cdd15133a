package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/rfielding/kripke-smv/kripke"
)

const scenarioA = `
name: scenarioA
vars:
  - name: x
    values: [a, b]
modules:
  - name: m
    assign:
      - var: x
        cases:
          - when: x == a
            next: [a, b]
          - when: x == b
            next: [b]
init: x == a
specs:
  - name: always-a
    formula: AG(x == a)
  - name: reach-b
    description: x can become b
    formula: EF(x == b)
`

func TestParseScenarioA(t *testing.T) {
	d, err := Parse([]byte(scenarioA))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := &kripke.Model{
		Name: "scenarioA",
		Vars: []kripke.Variable{kripke.EnumVar("x", "a", "b")},
		Modules: []kripke.Module{{Name: "m", Assigns: []kripke.Assign{{Var: "x", Rules: []kripke.Rule{
			{Guard: kripke.Eq{Var: "x", Value: "a"}, Next: []kripke.Term{kripke.Lit("a"), kripke.Lit("b")}},
			{Guard: kripke.Eq{Var: "x", Value: "b"}, Next: []kripke.Term{kripke.Lit("b")}},
		}}}}},
		Init: kripke.Eq{Var: "x", Value: "a"},
	}
	if diff := cmp.Diff(want, d.Model); diff != "" {
		t.Errorf("Model mismatch (-want +got):\n%s", diff)
	}
	req, ok := d.Lookup("reach-b")
	if !ok || req.Description != "x can become b" {
		t.Fatalf("Expected property reach-b, got %+v", req)
	}
	sys, err := d.System()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	res, err := kripke.Check(sys, req.Formula, kripke.Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Verdict != kripke.Holds || res.Trace.Len() != 2 {
		t.Errorf("Expected EF(x == b) to hold with a two-state witness, got %v", res.Verdict)
	}
}

func TestFormulaSyntax(t *testing.T) {
	d, err := Parse([]byte(`
vars:
  - name: door
    values: [normal, open, locked]
  - name: other
    values: [normal, open, locked]
  - name: pin
    type: boolean
  - name: inc
    type: boolean
    range: [1, 2]
  - name: level
    type: int
    min: 0
    max: 2
defines:
  - name: shut
    expr: door != open
`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	tests := []struct {
		src  string
		want string
	}{
		{"pin", "pin"},
		{"pin == true", "pin = TRUE"},
		{"inc[1] == FALSE", "inc[1] = FALSE"},
		{"not inc[2] && pin", "(!inc[2] & pin)"},
		{"door in [open, locked]", "door in {open, locked}"},
		{"door == other", "door = other"},
		{"\"open\" == door", "door = open"},
		{"level == 2", "level = 2"},
		{"shut", "!(door = open)"},
		{"shut == false", "!!(door = open)"},
		{"implies(pin, EX(door == open))", "(pin -> EX (door = open))"},
		{"AG(EF(shut))", "AG EF !(door = open)"},
		{"EU(pin, inc[1]) or AU(TRUE, false)", "(E[pin U inc[1]] | A[TRUE U FALSE])"},
	}
	for _, tt := range tests {
		f, err := d.Formula(tt.src)
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", tt.src, err)
			continue
		}
		if got := f.String(); got != tt.want {
			t.Errorf("Expected %q for %q, got %q", tt.want, tt.src, got)
		}
	}
}

func TestMalformedFormula(t *testing.T) {
	d, err := Parse([]byte(scenarioA))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, src := range []string{
		"",
		"y == a",
		"x",
		"AG(x == a, x == b)",
		"FOO(x == a)",
		"x == ",
		"x + 1",
	} {
		if _, err := d.Formula(src); !errors.Is(err, kripke.ErrMalformedFormula) {
			t.Errorf("Expected malformed formula for %q, got %v", src, err)
		}
	}
}

func TestMalformedModel(t *testing.T) {
	_, err := Parse([]byte(`
vars:
  - name: x
    values: [a, b]
  - name: p
    type: boolean
    values: [yes, no]
  - name: q
    type: float
`))
	if !errors.Is(err, kripke.ErrMalformedModel) {
		t.Fatalf("Expected malformed model, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("Expected 2 defects, got %d: %v", n, err)
	}

	_, err = Parse([]byte(`
vars:
  - name: x
    values: [a, b]
modules:
  - name: m
    assign:
      - var: x
        cases:
          - when: y == a
            next: [a]
          - when: x == c
            next: [a]
`))
	if !errors.Is(err, kripke.ErrMalformedModel) {
		t.Fatalf("Expected malformed model, got %v", err)
	}

	_, err = Parse([]byte("vars: [\n"))
	if !errors.Is(err, kripke.ErrMalformedModel) {
		t.Errorf("Expected malformed model for broken YAML, got %v", err)
	}

	_, err = Parse([]byte("vars: []\ncolour: red\n"))
	if !errors.Is(err, kripke.ErrMalformedModel) {
		t.Errorf("Expected unknown fields to be rejected, got %v", err)
	}
}

func TestNextValues(t *testing.T) {
	d, err := Parse([]byte(`
vars:
  - name: p
    type: boolean
  - name: q
    type: boolean
modules:
  - name: m
    assign:
      - var: p
        cases:
          - when: q
            next: [TRUE]
          - next: [q, false]
`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rules := d.Model.Modules[0].Assigns[0].Rules
	want := []kripke.Rule{
		{Guard: kripke.Bool{Var: "q"}, Next: []kripke.Term{kripke.Lit("TRUE")}},
		{Next: []kripke.Term{kripke.Ref("q"), kripke.Lit("FALSE")}},
	}
	if diff := cmp.Diff(want, rules); diff != "" {
		t.Errorf("Rules mismatch (-want +got):\n%s", diff)
	}
	sys, err := d.System()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if owner := sys.Owner("q"); owner != "" {
		t.Errorf("Expected q to be free, got owner %q", owner)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.yaml")
	if err := os.WriteFile(path, []byte(scenarioA), 0o644); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(d.Specs) != 2 {
		t.Errorf("Expected 2 specs, got %d", len(d.Specs))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
