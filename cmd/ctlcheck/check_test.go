package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scott-cotton/cli"

	"github.com/rfielding/kripke-smv/kripke"
	"github.com/rfielding/kripke-smv/model"
)

const doorModel = `
name: door
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
          - next: [b]
init: x == a
specs:
  - name: reach
    description: b is reachable
    formula: EF(x == b)
  - name: stay
    formula: AG(x == a)
`

func parseDoor(t *testing.T) *model.Document {
	t.Helper()
	doc, err := model.Parse([]byte(doorModel))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRequirements(t *testing.T) {
	doc := parseDoor(t)

	all, err := (&checkConfig{}).requirements(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 requirements, got %d", len(all))
	}

	one, err := (&checkConfig{Spec: "stay"}).requirements(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(one) != 1 || one[0].ID != "stay" {
		t.Errorf("Expected only stay, got %v", one)
	}

	adhoc, err := (&checkConfig{Formula: "EX(x == b)"}).requirements(doc)
	if err != nil {
		t.Fatal(err)
	}
	if got := adhoc[0].Formula.String(); got != "EX (x = b)" {
		t.Errorf("Expected EX (x = b), got %s", got)
	}

	if _, err := (&checkConfig{Spec: "missing"}).requirements(doc); !errors.Is(err, kripke.ErrMalformedFormula) {
		t.Errorf("Expected ErrMalformedFormula, got %v", err)
	}
}

func TestCheckAllShared(t *testing.T) {
	doc := parseDoor(t)
	sys, err := doc.System()
	if err != nil {
		t.Fatal(err)
	}
	results, g, err := checkAll(sys, doc.Specs, kripke.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 {
		t.Errorf("Expected 2 states, got %d", g.Len())
	}
	if results[0].Verdict != kripke.Holds {
		t.Errorf("Expected reach to hold, got %v", results[0].Verdict)
	}
	if results[1].Verdict != kripke.Violated {
		t.Errorf("Expected stay to be violated, got %v", results[1].Verdict)
	}

	if err := verdictErr(results); err == nil {
		t.Error("Expected a non-zero exit when a property is violated")
	}
	if err := verdictErr(results[:1]); err != nil {
		t.Errorf("Expected no error when everything holds, got %v", err)
	}
}

func TestPrinter(t *testing.T) {
	doc := parseDoor(t)
	sys, err := doc.System()
	if err != nil {
		t.Fatal(err)
	}
	results, _, err := checkAll(sys, doc.Specs, kripke.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	p := newPrinter(&buf, false)
	for i, req := range doc.Specs {
		p.result(req, results[i])
	}
	out := buf.String()
	for _, want := range []string{
		"HOLDS reach: EF (x = b)",
		"  b is reachable",
		"VIOLATED stay: AG (x = a)",
		"counterexample (2 states)",
		"    0: x=a",
		"    1: x=b",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Expected no escape codes without color, got %q", out)
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	if !useColor("always", &buf) {
		t.Error("Expected always to force color")
	}
	if useColor("never", &buf) {
		t.Error("Expected never to disable color")
	}
	if useColor("auto", &buf) {
		t.Error("Expected auto to disable color for a buffer")
	}
}

func TestPrintSimulation(t *testing.T) {
	sys, err := parseDoor(t).System()
	if err != nil {
		t.Fatal(err)
	}
	sim, err := kripke.NewSimulator(sys, 3)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := sim.Run(5)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	newPrinter(&buf, false).simulation(tr, sim.Moves())
	out := buf.String()
	if !strings.HasPrefix(out, fmt.Sprintf("run of %d states:\n    0: x=a\n", tr.Len())) {
		t.Errorf("Expected the run to start at x=a, got:\n%s", out)
	}
	if !strings.Contains(out, "loops back to") {
		t.Errorf("Expected the run to close a loop, got:\n%s", out)
	}
}

type closeBuffer struct {
	bytes.Buffer
}

func (*closeBuffer) Close() error { return nil }

// runMain runs ctlcheck with args and returns its exit status and output.
func runMain(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut closeBuffer
	cc := &cli.Context{Out: &out, Err: &errOut, Go: context.Background()}
	cmd := MainCommand()
	err := cmd.Run(cc, args)
	return cmd.Exit(cc, err), out.String(), errOut.String()
}

func writeDoor(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "door.yaml")
	if err := os.WriteFile(path, []byte(doorModel), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExitStatus(t *testing.T) {
	path := writeDoor(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"holds", []string{"-spec", "reach", path}, 0},
		{"violated", []string{path}, 1},
		{"two models", []string{path, path}, 2},
		{"spec and formula", []string{"-spec", "reach", "-f", "EF(x == b)", path}, 2},
		{"unknown flag", []string{"-bogus", path}, 2},
		{"unknown spec", []string{"-spec", "nope", path}, 2},
		{"bad formula", []string{"-f", "EF(y == b)", path}, 2},
		{"missing file", []string{filepath.Join(t.TempDir(), "none.yaml")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runMain(t, tt.args...)
			if code != tt.want {
				t.Errorf("Expected exit %d, got %d\nstdout:\n%s\nstderr:\n%s", tt.want, code, out, errOut)
			}
		})
	}
}

func TestUsageGoesToStderr(t *testing.T) {
	path := writeDoor(t)
	_, out, errOut := runMain(t, path, path)
	if out != "" {
		t.Errorf("Expected no output on stdout, got:\n%s", out)
	}
	if !strings.Contains(errOut, "synopsis: ctlcheck") {
		t.Errorf("Expected usage on stderr, got:\n%s", errOut)
	}
}

func TestExportFlags(t *testing.T) {
	path := writeDoor(t)
	code, out, _ := runMain(t, "-smv", path)
	if code != 0 || !strings.Contains(out, "CTLSPEC NAME reach := EF (x = b);") {
		t.Errorf("Expected SMV output with exit 0, got %d:\n%s", code, out)
	}
	code, out, _ = runMain(t, "-rules", path)
	if code != 0 || !strings.Contains(out, "| m | x | 1 | `x = a` | {a, b} |") {
		t.Errorf("Expected the transition table with exit 0, got %d:\n%s", code, out)
	}
}
