package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/ecotourisme/go-ecosparql/triplestore"
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printValue(v any) error {
	if a.jsonOut {
		return a.printJSON(v)
	}
	_, err := fmt.Fprintln(a.out, v)
	return err
}

func (a *app) printList(items []string) error {
	if a.jsonOut {
		return a.printJSON(items)
	}
	for _, it := range items {
		if _, err := fmt.Fprintln(a.out, it); err != nil {
			return err
		}
	}
	return nil
}

// printResources prints one block per resource: the URI, then one
// predicate/value line per property.
func (a *app) printResources(res []triplestore.Resource) error {
	if a.jsonOut {
		return a.printJSON(res)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for i, r := range res {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, r.URI)
		for _, p := range r.Properties {
			fmt.Fprintf(tw, "  %s\t%s\n", a.predicateName(p.Predicate), formatValue(p.Object))
		}
	}
	return tw.Flush()
}

// printBindings prints a result table with one column per variable.
func (a *app) printBindings(bindings []driver.Binding) error {
	if a.jsonOut {
		return a.printJSON(triplestore.Flatten(bindings))
	}
	seen := make(map[string]bool)
	var vars []string
	for _, b := range bindings {
		for name := range b {
			if !seen[name] {
				seen[name] = true
				vars = append(vars, name)
			}
		}
	}
	sort.Strings(vars)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for i, v := range vars {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, "?"+v)
	}
	fmt.Fprintln(tw)
	for _, b := range bindings {
		for i, v := range vars {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			if val, ok := b[v]; ok {
				fmt.Fprint(tw, formatValue(val))
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// predicateName shortens predicates of the configured namespace to their
// local name.
func (a *app) predicateName(iri string) string {
	if iri == ast.RDFType {
		return "a"
	}
	if a.manager != nil {
		if name, ok := a.manager.Factory().LocalName(iri); ok {
			return name
		}
	}
	return "<" + iri + ">"
}

func formatValue(v driver.Value) string {
	switch {
	case v.IsIRI():
		return "<" + v.Value + ">"
	case v.IsBlank():
		return "_:" + v.Value
	case v.Lang != "":
		return fmt.Sprintf("%q@%s", v.Value, v.Lang)
	case v.Datatype == "" || v.Datatype == ast.XSDString:
		return fmt.Sprintf("%q", v.Value)
	default:
		return v.Value
	}
}
