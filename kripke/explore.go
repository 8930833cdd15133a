package kripke

import (
	"golang.org/x/sync/errgroup"
)

// DefaultMaxStates caps exploration when Options.MaxStates is zero.
const DefaultMaxStates = 1 << 20

// Options bound and tune one exploration.
type Options struct {
	// MaxStates aborts exploration with StateSpaceOverflow once more states
	// than this are reachable.
	MaxStates int
	// Workers > 1 expands each BFS layer in parallel. Results are merged in
	// frontier order, so numbering and edges match the sequential run.
	Workers int
}

func (o Options) maxStates() int {
	if o.MaxStates <= 0 {
		return DefaultMaxStates
	}
	return o.MaxStates
}

// Graph is the reachable state graph of a System: every state reachable
// from the initial set, with forward and backward adjacency.
type Graph struct {
	sys   *System
	pool  *Pool
	init  []StateID
	succ  [][]StateID
	pred  [][]StateID
	edges int
	depth int
}

// Explore enumerates the reachable states of sys breadth first.
func Explore(sys *System, opts Options) (*Graph, error) {
	max := opts.maxStates()
	vecs, err := sys.initialStates(max)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, &Error{
			Kind:    InitialStateUnsatisfiable,
			Formula: sys.init.src.String(),
			Msg:     "no state satisfies the initial predicate",
		}
	}
	g := &Graph{
		sys:  sys,
		pool: NewPool(sys.Width()),
	}
	for _, v := range vecs {
		id, fresh := g.pool.Intern(v)
		if fresh {
			g.grow()
			g.init = append(g.init, id)
		}
	}
	frontier := append([]StateID(nil), g.init...)
	for len(frontier) > 0 {
		var next []StateID
		if opts.Workers > 1 && len(frontier) > 1 {
			next, err = g.expandParallel(frontier, opts.Workers, max)
		} else {
			next, err = g.expandLayer(frontier, max)
		}
		if err != nil {
			return nil, err
		}
		frontier = next
		if len(frontier) > 0 {
			g.depth++
		}
	}
	return g, nil
}

func (g *Graph) grow() {
	g.succ = append(g.succ, nil)
	g.pred = append(g.pred, nil)
}

func (g *Graph) overflow() error {
	return &Error{
		Kind:  StateSpaceOverflow,
		Count: g.pool.Len(),
		Msg:   "reachable states exceed the cap",
	}
}

// link records from -> next, interning next. It returns the id and whether
// next was unseen.
func (g *Graph) link(from StateID, next []uint8, max int) (StateID, bool, error) {
	id, fresh := g.pool.Intern(next)
	if fresh {
		if g.pool.Len() > max {
			return id, fresh, g.overflow()
		}
		g.grow()
	}
	g.succ[from] = append(g.succ[from], id)
	g.pred[id] = append(g.pred[id], from)
	g.edges++
	return id, fresh, nil
}

func (g *Graph) expandLayer(frontier []StateID, max int) ([]StateID, error) {
	var next []StateID
	e := g.sys.newExpander()
	for _, from := range frontier {
		err := e.expand(g.pool.Vec(from), func(vec []uint8) error {
			id, fresh, err := g.link(from, vec, max)
			if err != nil {
				return err
			}
			if fresh {
				next = append(next, id)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

// chunk is one worker's share of a layer: successor vectors stored back to
// back, with counts[i] successors for the i-th frontier state.
type chunk struct {
	states []StateID
	flat   []uint8
	counts []int
	err    error
}

// expandParallel computes successors of frontier on several goroutines
// and merges them into the graph on the calling goroutine. The pool is only
// read while workers run.
func (g *Graph) expandParallel(frontier []StateID, workers, max int) ([]StateID, error) {
	if workers > len(frontier) {
		workers = len(frontier)
	}
	size := (len(frontier) + workers - 1) / workers
	chunks := make([]*chunk, 0, workers)
	for lo := 0; lo < len(frontier); lo += size {
		hi := lo + size
		if hi > len(frontier) {
			hi = len(frontier)
		}
		chunks = append(chunks, &chunk{states: frontier[lo:hi]})
	}

	var eg errgroup.Group
	for _, c := range chunks {
		c := c
		eg.Go(func() error {
			e := g.sys.newExpander()
			for _, from := range c.states {
				n := 0
				err := e.expand(g.pool.Vec(from), func(vec []uint8) error {
					c.flat = append(c.flat, vec...)
					n++
					return nil
				})
				if err != nil {
					c.err = err
					return err
				}
				c.counts = append(c.counts, n)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		// report the failure the sequential order would have hit first
		for _, c := range chunks {
			if c.err != nil {
				return nil, c.err
			}
		}
		return nil, err
	}

	var next []StateID
	w := g.sys.Width()
	for _, c := range chunks {
		off := 0
		for i, from := range c.states {
			for k := 0; k < c.counts[i]; k++ {
				id, fresh, err := g.link(from, c.flat[off:off+w], max)
				if err != nil {
					return nil, err
				}
				if fresh {
					next = append(next, id)
				}
				off += w
			}
		}
	}
	return next, nil
}

// System returns the transition system g was explored from.
func (g *Graph) System() *System { return g.sys }

// Len is the number of reachable states.
func (g *Graph) Len() int { return g.pool.Len() }

// Edges is the number of transitions between reachable states.
func (g *Graph) Edges() int { return g.edges }

// Depth is the number of BFS layers beyond the initial states.
func (g *Graph) Depth() int { return g.depth }

// Initial lists the initial states.
func (g *Graph) Initial() []StateID { return g.init }

// Succ lists the successors of id.
func (g *Graph) Succ(id StateID) []StateID { return g.succ[id] }

// Pred lists the predecessors of id.
func (g *Graph) Pred(id StateID) []StateID { return g.pred[id] }

// Valuation renders state id.
func (g *Graph) Valuation(id StateID) Valuation {
	return newValuation(g.sys.reg, g.pool.Vec(id))
}

// Lookup finds the reachable state equal to v.
func (g *Graph) Lookup(v Valuation) (StateID, bool) {
	return g.pool.Lookup(v.vec)
}

// IsEdge reports whether to is a successor of from.
func (g *Graph) IsEdge(from, to StateID) bool {
	for _, t := range g.succ[from] {
		if t == to {
			return true
		}
	}
	return false
}
