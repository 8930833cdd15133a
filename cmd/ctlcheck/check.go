package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/profile"
	"github.com/scott-cotton/cli"

	"github.com/rfielding/kripke-smv/kripke"
	"github.com/rfielding/kripke-smv/model"
	"github.com/rfielding/kripke-smv/models/cockpit"
)

const usageText = `ctlcheck - explicit-state CTL model checker

Usage:
  ctlcheck [flags] [model.yaml]

Without a model file the built-in cockpit access policy is checked.
Every property in the model is checked unless -spec or -f selects one.

Examples:
  ctlcheck
  ctlcheck -spec B
  ctlcheck -f 'EF(airplane[1] == cockpit)'
  ctlcheck -workers 8 -stats models/cockpit/cockpit.yaml
  ctlcheck -rules
  ctlcheck -simulate 20 -seed 7

Exit status: 0 all hold, 1 a property is violated, 2 error.`

type checkConfig struct {
	*cli.Command
	Spec       string `cli:"name=spec aliases=s desc='check only the named property'"`
	Formula    string `cli:"name=f aliases=formula desc='check this expression instead of the model properties'"`
	MaxStates  int    `cli:"name=max-states desc='abort when more states than this are reachable'"`
	Workers    int    `cli:"name=workers aliases=j desc='goroutines expanding each BFS layer'"`
	Config     string `cli:"name=config desc='read settings from this file'"`
	Color      bool   `cli:"name=color desc='force colored output'"`
	Stats      bool   `cli:"name=stats desc='print exploration statistics'"`
	Dot        string `cli:"name=dot desc='write the reachable graph as DOT to this file'"`
	Mermaid    bool   `cli:"name=mermaid desc='print traces as Mermaid state diagrams'"`
	Rules      bool   `cli:"name=rules desc='print the transition table and exit'"`
	SMV        bool   `cli:"name=smv desc='print the model in SMV syntax and exit'"`
	Simulate   int    `cli:"name=simulate desc='print a random run of up to this many steps and exit'"`
	Seed       int    `cli:"name=seed desc='random seed for -simulate'"`
	CPUProfile string `cli:"name=cpuprofile desc='write a CPU profile into this directory'"`
	Verbose    bool   `cli:"name=v desc='log progress to stderr'"`
}

// MainCommand returns the ctlcheck command.
func MainCommand() *cli.Command {
	cfg := &checkConfig{}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "ctlcheck").
		WithSynopsis("ctlcheck [flags] [model.yaml] - check CTL properties of a transition system").
		WithDescription(usageText).
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *checkConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return cfg.usage(cc, err)
	}
	if len(args) > 1 {
		return cfg.usage(cc, fmt.Errorf("%w: at most one model file, got %v", cli.ErrUsage, args))
	}
	if cfg.Spec != "" && cfg.Formula != "" {
		return cfg.usage(cc, fmt.Errorf("%w: only one of -spec, -f may be specified", cli.ErrUsage))
	}
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(0)
	log.SetPrefix("ctlcheck: ")

	settings, err := loadConfig(cfg.Config)
	if err != nil {
		return fail(cc, err)
	}
	if cfg.MaxStates > 0 {
		settings.MaxStates = cfg.MaxStates
	}
	if cfg.Workers > 0 {
		settings.Workers = cfg.Workers
	}
	if cfg.Color {
		settings.Color = "always"
	}
	if cfg.CPUProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.CPUProfile), profile.Quiet).Stop()
	}

	doc, err := loadDocument(args)
	if err != nil {
		return fail(cc, err)
	}
	log.Printf("loaded model %q: %d variables, %d modules", doc.Model.Name, len(doc.Model.Vars), len(doc.Model.Modules))

	reqs, err := cfg.requirements(doc)
	if err != nil {
		return fail(cc, err)
	}
	if cfg.SMV {
		fmt.Fprint(cc.Out, kripke.GenerateSMV(doc.Model, reqs))
		return nil
	}
	sys, err := doc.System()
	if err != nil {
		return fail(cc, err)
	}
	if cfg.Rules {
		fmt.Fprint(cc.Out, sys.TransitionTable())
		return nil
	}
	if cfg.Simulate > 0 {
		sim, err := kripke.NewSimulator(sys, int64(cfg.Seed))
		if err != nil {
			return fail(cc, err)
		}
		t, err := sim.Run(cfg.Simulate)
		if err != nil {
			return fail(cc, err)
		}
		p := newPrinter(cc.Out, useColor(settings.Color, cc.Out))
		p.simulation(t, sim.Moves())
		return nil
	}

	results, g, err := checkAll(sys, reqs, settings.options())
	if err != nil {
		return fail(cc, err)
	}

	p := newPrinter(cc.Out, useColor(settings.Color, cc.Out))
	for i, req := range reqs {
		p.result(req, results[i])
		if cfg.Mermaid && results[i].Trace != nil {
			if err := kripke.WriteMermaidTrace(results[i].Trace, cc.Out); err != nil {
				return fail(cc, err)
			}
		}
	}
	if cfg.Stats && len(results) > 0 {
		p.stats(results[0].Stats)
	}
	if cfg.Dot != "" {
		var t *kripke.Trace
		for _, r := range results {
			if r.Trace != nil {
				t = r.Trace
				break
			}
		}
		if err := g.SaveGraphviz(cfg.Dot, t); err != nil {
			return fail(cc, err)
		}
		log.Printf("wrote %s", cfg.Dot)
	}
	return verdictErr(results)
}

func loadDocument(args []string) (*model.Document, error) {
	if len(args) == 0 {
		return cockpit.Load()
	}
	return model.Load(args[0])
}

// requirements picks what to check: one expression, one named property or
// all of them.
func (cfg *checkConfig) requirements(doc *model.Document) ([]kripke.Requirement, error) {
	switch {
	case cfg.Formula != "":
		f, err := doc.Formula(cfg.Formula)
		if err != nil {
			return nil, err
		}
		return []kripke.Requirement{{ID: "f", Formula: f}}, nil
	case cfg.Spec != "":
		req, ok := doc.Lookup(cfg.Spec)
		if !ok {
			return nil, fmt.Errorf("%w: no property named %q", kripke.ErrMalformedFormula, cfg.Spec)
		}
		return []kripke.Requirement{req}, nil
	}
	if len(doc.Specs) == 0 {
		return nil, errors.New("model declares no properties; use -f")
	}
	return doc.Specs, nil
}

// checkAll explores once and checks every requirement against the graph.
func checkAll(sys *kripke.System, reqs []kripke.Requirement, opts kripke.Options) ([]*kripke.Result, *kripke.Graph, error) {
	for _, req := range reqs {
		if err := sys.Validate(req.Formula); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", req.ID, err)
		}
	}
	start := time.Now()
	g, err := kripke.Explore(sys, opts)
	if err != nil {
		return nil, nil, err
	}
	explored := time.Since(start)
	log.Printf("explored %d states, %d edges in %v", g.Len(), g.Edges(), explored)
	results := make([]*kripke.Result, len(reqs))
	for i, req := range reqs {
		res, err := g.Check(req.Formula)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", req.ID, err)
		}
		res.Stats.Explore = explored
		log.Printf("%s: %v after %d rounds", req.ID, res.Verdict, res.Stats.Rounds)
		results[i] = res
	}
	return results, g, nil
}

func verdictErr(results []*kripke.Result) error {
	for _, r := range results {
		if r.Verdict == kripke.Violated {
			return cli.ExitCodeErr(1)
		}
	}
	return nil
}

// usage prints the synopsis and exits with status 2.
func (cfg *checkConfig) usage(cc *cli.Context, err error) error {
	cfg.Usage(cc, err)
	return cli.ExitCodeErr(2)
}

func fail(cc *cli.Context, err error) error {
	fmt.Fprintf(cc.Err, "ctlcheck: %v\n", err)
	return cli.ExitCodeErr(2)
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
