package kripke

import (
	"math/rand"
	"sync"
)

// Simulator walks a system one randomly chosen successor at a time. It is
// safe for concurrent use.
type Simulator struct {
	sys   *System
	rng   *rand.Rand
	cur   Valuation
	steps int
	// moves counts, per module, the steps in which it changed a variable it owns
	moves map[string]int
	mu    sync.RWMutex
}

// NewSimulator starts a walk from one of the initial states, picked with
// the given seed.
func NewSimulator(sys *System, seed int64) (*Simulator, error) {
	states, err := sys.InitialStates()
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, &Error{
			Kind:    InitialStateUnsatisfiable,
			Formula: sys.init.src.String(),
			Msg:     "no state satisfies the initial predicate",
		}
	}
	rng := rand.New(rand.NewSource(seed))
	return &Simulator{
		sys:   sys,
		rng:   rng,
		cur:   states[rng.Intn(len(states))],
		moves: make(map[string]int),
	}, nil
}

// State returns the current state.
func (s *Simulator) State() Valuation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Steps returns the number of steps taken so far.
func (s *Simulator) Steps() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps
}

// Step moves to a uniformly chosen successor and returns it.
func (s *Simulator) Step() (Valuation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

func (s *Simulator) step() (Valuation, error) {
	next, err := s.sys.Successors(s.cur)
	if err != nil {
		return Valuation{}, err
	}
	chosen := next[s.rng.Intn(len(next))]
	touched := make(map[string]bool)
	for _, name := range chosen.Diff(s.cur) {
		if m := s.sys.Owner(name); m != "" && !touched[m] {
			touched[m] = true
			s.moves[m]++
		}
	}
	s.cur = chosen
	s.steps++
	return chosen, nil
}

// Run takes up to n steps and returns the states visited, starting with the
// current one. The run stops early when it revisits a state; the trace then
// loops back to the first visit.
func (s *Simulator) Run(n int) (*Trace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := NewPool(s.sys.Width())
	t := &Trace{Loop: -1}
	add := func(v Valuation) bool {
		id, fresh := pool.Intern(v.vec)
		if !fresh {
			for i, seen := range t.IDs {
				if seen == id {
					t.Loop = i
				}
			}
			return false
		}
		t.States = append(t.States, v)
		t.IDs = append(t.IDs, id)
		return true
	}
	add(s.cur)
	for i := 0; i < n; i++ {
		v, err := s.step()
		if err != nil {
			return nil, err
		}
		if !add(v) {
			break
		}
	}
	return t, nil
}

// Moves returns how many steps each module changed one of its variables.
func (s *Simulator) Moves() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.moves))
	for m, n := range s.moves {
		out[m] = n
	}
	return out
}
