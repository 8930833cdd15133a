// Package model loads transition systems and their properties from YAML.
//
// Guards, defines, the initial predicate and properties are written as
// expressions: boolean variables stand alone, other variables are compared
// with == or !=, and `x in [a, b]` tests membership. Temporal operators
// and implication are calls: AG(f), EF(f), EU(f, g), implies(f, g).
package model

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/multierr"

	"github.com/rfielding/kripke-smv/kripke"
)

type file struct {
	Name    string       `yaml:"name"`
	Vars    []varDecl    `yaml:"vars"`
	Defines []define     `yaml:"defines"`
	Modules []moduleDecl `yaml:"modules"`
	Init    string       `yaml:"init"`
	Specs   []specDecl   `yaml:"specs"`
}

// varDecl declares one variable, or an array of them when Range is set:
// name[lo] through name[hi].
type varDecl struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Values []string `yaml:"values"`
	Min    int      `yaml:"min"`
	Max    int      `yaml:"max"`
	Range  []int    `yaml:"range"`
}

type define struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

type moduleDecl struct {
	Name   string       `yaml:"name"`
	Assign []assignDecl `yaml:"assign"`
}

type assignDecl struct {
	Var   string     `yaml:"var"`
	Cases []caseDecl `yaml:"cases"`
}

type caseDecl struct {
	When string   `yaml:"when"`
	Next []string `yaml:"next"`
}

type specDecl struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Formula     string `yaml:"formula"`
}

// Document is a loaded model with its named properties.
type Document struct {
	Model *kripke.Model
	Specs []kripke.Requirement

	vars    map[string]kripke.Variable
	defines map[string]kripke.Formula
}

// Load reads and converts the YAML model at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse converts a YAML model. Every defect found is reported.
func Parse(data []byte) (*Document, error) {
	var f file
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, &kripke.Error{Kind: kripke.MalformedModel, Msg: err.Error()}
	}
	d := &Document{
		Model:   &kripke.Model{Name: f.Name},
		vars:    make(map[string]kripke.Variable),
		defines: make(map[string]kripke.Formula),
	}
	var err error
	for _, decl := range f.Vars {
		vs, verr := declare(decl)
		if verr != nil {
			err = multierr.Append(err, verr)
			continue
		}
		for _, v := range vs {
			d.Model.Vars = append(d.Model.Vars, v)
			d.vars[v.Name] = v
		}
	}
	if err != nil {
		return nil, err
	}

	// defines may use earlier defines
	for _, def := range f.Defines {
		if _, dup := d.defines[def.Name]; dup {
			err = multierr.Append(err, &kripke.Error{Kind: kripke.MalformedModel, Msg: fmt.Sprintf("define %s declared twice", def.Name)})
			continue
		}
		if _, clash := d.vars[def.Name]; clash {
			err = multierr.Append(err, &kripke.Error{Kind: kripke.MalformedModel, Variable: def.Name, Msg: "define shadows a variable"})
			continue
		}
		fm, derr := d.convert(kripke.MalformedModel, def.Expr)
		if derr != nil {
			err = multierr.Append(err, derr)
			continue
		}
		d.defines[def.Name] = fm
	}

	for _, md := range f.Modules {
		mod := kripke.Module{Name: md.Name}
		for _, ad := range md.Assign {
			a, aerr := d.assign(md.Name, ad)
			if aerr != nil {
				err = multierr.Append(err, aerr)
				continue
			}
			mod.Assigns = append(mod.Assigns, a)
		}
		d.Model.Modules = append(d.Model.Modules, mod)
	}

	if strings.TrimSpace(f.Init) != "" {
		pred, ierr := d.convert(kripke.MalformedModel, f.Init)
		if ierr != nil {
			err = multierr.Append(err, ierr)
		}
		d.Model.Init = pred
	}

	for _, sd := range f.Specs {
		fm, serr := d.Formula(sd.Formula)
		if serr != nil {
			err = multierr.Append(err, fmt.Errorf("spec %s: %w", sd.Name, serr))
			continue
		}
		d.Specs = append(d.Specs, kripke.Requirement{ID: sd.Name, Description: sd.Description, Formula: fm})
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func declare(decl varDecl) ([]kripke.Variable, error) {
	var values []string
	switch decl.Type {
	case "", "enum":
		values = decl.Values
	case "boolean", "bool":
		if len(decl.Values) > 0 {
			return nil, &kripke.Error{Kind: kripke.MalformedModel, Variable: decl.Name, Msg: "boolean variable lists values"}
		}
		values = []string{kripke.BoolFalse, kripke.BoolTrue}
	case "int":
		if decl.Max < decl.Min {
			return nil, &kripke.Error{Kind: kripke.MalformedModel, Variable: decl.Name, Msg: fmt.Sprintf("empty range %d..%d", decl.Min, decl.Max)}
		}
		for i := decl.Min; i <= decl.Max; i++ {
			values = append(values, strconv.Itoa(i))
		}
	default:
		return nil, &kripke.Error{Kind: kripke.MalformedModel, Variable: decl.Name, Msg: fmt.Sprintf("unknown type %q", decl.Type)}
	}
	if len(decl.Range) == 0 {
		return []kripke.Variable{{Name: decl.Name, Values: values}}, nil
	}
	if len(decl.Range) != 2 || decl.Range[1] < decl.Range[0] {
		return nil, &kripke.Error{Kind: kripke.MalformedModel, Variable: decl.Name, Msg: "range must be [lo, hi] with lo <= hi"}
	}
	var out []kripke.Variable
	for i := decl.Range[0]; i <= decl.Range[1]; i++ {
		out = append(out, kripke.Variable{Name: fmt.Sprintf("%s[%d]", decl.Name, i), Values: values})
	}
	return out, nil
}

func (d *Document) convert(kind kripke.ErrorKind, src string) (kripke.Formula, error) {
	c := &converter{vars: d.vars, defines: d.defines, kind: kind}
	return c.parse(src)
}

func (d *Document) assign(module string, ad assignDecl) (kripke.Assign, error) {
	a := kripke.Assign{Var: ad.Var}
	target, ok := d.vars[ad.Var]
	if !ok {
		// left for NewSystem, which reports it with the module name
		target = kripke.Variable{Name: ad.Var}
	}
	var err error
	for i, cd := range ad.Cases {
		r := kripke.Rule{}
		if strings.TrimSpace(cd.When) != "" {
			g, gerr := d.convert(kripke.MalformedModel, cd.When)
			if gerr != nil {
				err = multierr.Append(err, fmt.Errorf("module %s, %s case %d: %w", module, ad.Var, i+1, gerr))
				continue
			}
			r.Guard = g
		}
		for _, n := range cd.Next {
			n = strings.TrimSpace(n)
			if _, isVar := d.vars[n]; isVar {
				r.Next = append(r.Next, kripke.Ref(n))
				continue
			}
			r.Next = append(r.Next, kripke.Lit(normalize(target, n)))
		}
		a.Rules = append(a.Rules, r)
	}
	return a, err
}

// Formula converts a property expression. Defects are MalformedFormula.
func (d *Document) Formula(src string) (kripke.Formula, error) {
	return d.convert(kripke.MalformedFormula, src)
}

// Lookup returns the named property.
func (d *Document) Lookup(name string) (kripke.Requirement, bool) {
	for _, s := range d.Specs {
		if s.ID == name {
			return s, true
		}
	}
	return kripke.Requirement{}, false
}

// Var returns a declared variable.
func (d *Document) Var(name string) (kripke.Variable, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// Define returns a named predicate.
func (d *Document) Define(name string) (kripke.Formula, bool) {
	f, ok := d.defines[name]
	return f, ok
}

// System validates the model and builds its transition system.
func (d *Document) System() (*kripke.System, error) {
	return kripke.NewSystem(d.Model)
}
