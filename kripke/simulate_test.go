package kripke

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSimulatorStep(t *testing.T) {
	sys := ring(t).System()
	sim, err := NewSimulator(sys, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v, _ := sim.State().Get("c"); v != "0" {
		t.Errorf("Expected to start at c=0, got %s", v)
	}
	next, err := sim.Step()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v, _ := next.Get("c"); v != "1" {
		t.Errorf("Expected c=1 after one step, got %s", v)
	}
	if sim.Steps() != 1 {
		t.Errorf("Expected 1 step, got %d", sim.Steps())
	}
	if got := sim.Moves()["counter"]; got != 1 {
		t.Errorf("Expected counter to have moved once, got %d", got)
	}
}

func TestSimulatorRun(t *testing.T) {
	sys := ring(t).System()
	for seed := int64(0); seed < 8; seed++ {
		sim, err := NewSimulator(sys, seed)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		tr, err := sim.Run(10)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		// 0 -> 1 -> 0 or 0 -> 1 -> 2 -> 2, both close a loop
		if tr.Loop < 0 {
			t.Errorf("seed %d: expected the run to close a loop, got %v", seed, values(tr, "c"))
		}
		if tr.Len() > 3 {
			t.Errorf("seed %d: expected at most 3 distinct states, got %d", seed, tr.Len())
		}
		for i := 1; i < tr.Len(); i++ {
			succ, err := sys.Successors(tr.States[i-1])
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			found := false
			for _, s := range succ {
				if s.Equal(tr.States[i]) {
					found = true
				}
			}
			if !found {
				t.Errorf("seed %d: step %d is not a transition", seed, i)
			}
		}
	}
}

func TestSimulatorSeed(t *testing.T) {
	sys := coins(t)
	run := func() []string {
		sim, err := NewSimulator(sys, 42)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		var out []string
		for i := 0; i < 20; i++ {
			v, err := sim.Step()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			out = append(out, v.String())
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("Expected equal seeds to give equal runs (-first +second):\n%s", diff)
	}
}

func TestSimulatorConcurrent(t *testing.T) {
	sim, err := NewSimulator(ring(t).System(), 7)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := sim.Step(); err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if sim.Steps() != 100 {
		t.Errorf("Expected 100 steps, got %d", sim.Steps())
	}
}

func TestSimulatorUnsatisfiable(t *testing.T) {
	sys, err := NewSystem(&Model{
		Name:    "empty",
		Vars:    []Variable{BoolVar("p")},
		Modules: []Module{{Name: "m", Assigns: []Assign{{Var: "p", Rules: []Rule{{Next: []Term{Ref("p")}}}}}}},
		Init:    And{Bool{"p"}, Not{Bool{"p"}}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := NewSimulator(sys, 0); !errors.Is(err, ErrInitialStateUnsatisfiable) {
		t.Errorf("Expected ErrInitialStateUnsatisfiable, got %v", err)
	}
}
