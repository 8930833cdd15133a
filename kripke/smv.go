package kripke

import (
	"fmt"
	"strconv"
	"strings"
)

// GenerateSMV renders m and reqs in SMV syntax, one ASSIGN block per module
// so each rule list reads as a case expression.
func GenerateSMV(m *Model, reqs []Requirement) string {
	var smv strings.Builder

	smv.WriteString("MODULE main\n")
	if m.Name != "" {
		smv.WriteString(fmt.Sprintf("-- %s\n", m.Name))
	}

	smv.WriteString("VAR\n")
	for _, d := range smvDecls(m.Vars) {
		if !d.array {
			smv.WriteString(fmt.Sprintf("    %s : %s;\n", d.name, smvType(d.v)))
			continue
		}
		smv.WriteString(fmt.Sprintf("    %s : array %d..%d of %s;\n", d.name, d.lo, d.hi, smvType(d.v)))
	}
	smv.WriteString("\n")

	if m.Init != nil {
		smv.WriteString("INIT\n")
		smv.WriteString(fmt.Sprintf("    %s\n\n", m.Init))
	}

	for _, mod := range m.Modules {
		smv.WriteString(fmt.Sprintf("-- module %s\n", mod.Name))
		smv.WriteString("ASSIGN\n")
		for _, a := range mod.Assigns {
			smv.WriteString(fmt.Sprintf("    next(%s) := case\n", a.Var))
			for _, r := range a.Rules {
				guard := r.Guard
				if guard == nil {
					guard = True{}
				}
				next := make([]string, len(r.Next))
				for i, t := range r.Next {
					next[i] = t.String()
				}
				set := "{}"
				if len(next) == 1 {
					set = next[0]
				} else if len(next) > 1 {
					set = "{" + strings.Join(next, ", ") + "}"
				}
				smv.WriteString(fmt.Sprintf("        %s : %s;\n", guard, set))
			}
			smv.WriteString("    esac;\n")
		}
		smv.WriteString("\n")
	}

	for _, req := range reqs {
		if req.Description != "" {
			smv.WriteString(fmt.Sprintf("-- %s\n", req.Description))
		}
		smv.WriteString(fmt.Sprintf("CTLSPEC NAME %s := %s;\n", req.ID, req.Formula))
	}
	return smv.String()
}

// smvDecl is one VAR line: a scalar, or the elements name[lo]..name[hi]
// declared as one array.
type smvDecl struct {
	name   string
	v      Variable
	array  bool
	lo, hi int
}

func smvType(v Variable) string {
	if v.IsBool() {
		return "boolean"
	}
	return "{" + strings.Join(v.Values, ", ") + "}"
}

// splitIndex splits "name[i]" into name and i.
func splitIndex(s string) (string, int, bool) {
	open := strings.LastIndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", 0, false
	}
	i, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil {
		return "", 0, false
	}
	return s[:open], i, true
}

// smvDecls groups indexed variables into arrays. A group is only declared
// as an array when its indices are consecutive and its elements share one
// domain; otherwise its elements are listed one by one.
func smvDecls(vars []Variable) []smvDecl {
	type entry struct {
		v     Variable
		group string
	}
	var order []entry
	groups := make(map[string][]Variable)
	for _, v := range vars {
		base, _, ok := splitIndex(v.Name)
		if !ok {
			order = append(order, entry{v: v})
			continue
		}
		if _, seen := groups[base]; !seen {
			order = append(order, entry{group: base})
		}
		groups[base] = append(groups[base], v)
	}
	var out []smvDecl
	for _, e := range order {
		if e.group == "" {
			out = append(out, smvDecl{name: e.v.Name, v: e.v})
			continue
		}
		elems := groups[e.group]
		_, lo, _ := splitIndex(elems[0].Name)
		regular := true
		for i, el := range elems {
			_, idx, _ := splitIndex(el.Name)
			if idx != lo+i || !el.sameDomain(elems[0]) {
				regular = false
				break
			}
		}
		if !regular {
			for _, el := range elems {
				out = append(out, smvDecl{name: el.Name, v: el})
			}
			continue
		}
		out = append(out, smvDecl{name: e.group, v: elems[0], array: true, lo: lo, hi: lo + len(elems) - 1})
	}
	return out
}
