package triplestore

import (
	"fmt"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/ecotourisme/go-ecosparql/rdfmap"
	"github.com/knakk/rdf"
)

// PropertyValue is one predicate/object pair of a subject.
type PropertyValue struct {
	Predicate string       `json:"predicate"`
	Object    driver.Value `json:"object"`
}

// Statement is one subject/predicate/object triple read from the store.
type Statement struct {
	Subject   string       `json:"subject"`
	Predicate string       `json:"predicate"`
	Object    driver.Value `json:"object"`
}

// Resource groups the statements of one subject.
type Resource struct {
	URI string `json:"uri"`
	// Properties keeps the order in which the store returned the triples.
	Properties []PropertyValue `json:"properties"`
}

// Get returns the first value of predicate.
func (r Resource) Get(predicate string) (driver.Value, bool) {
	for _, p := range r.Properties {
		if p.Predicate == predicate {
			return p.Object, true
		}
	}
	return driver.Value{}, false
}

// All returns every value of predicate.
func (r Resource) All(predicate string) []driver.Value {
	var out []driver.Value
	for _, p := range r.Properties {
		if p.Predicate == predicate {
			out = append(out, p.Object)
		}
	}
	return out
}

// Types returns the IRIs asserted with rdf:type.
func (r Resource) Types() []string {
	var out []string
	for _, v := range r.All(ast.RDFType) {
		if v.IsIRI() {
			out = append(out, v.Value)
		}
	}
	return out
}

// GroupBySubject folds statements into one Resource per subject, in order of
// first appearance. Duplicate statements are dropped.
func GroupBySubject(stmts []Statement) []Resource {
	index := make(map[string]int)
	seen := make(map[Statement]bool, len(stmts))
	out := make([]Resource, 0)
	for _, st := range stmts {
		if seen[st] {
			continue
		}
		seen[st] = true
		i, ok := index[st.Subject]
		if !ok {
			i = len(out)
			index[st.Subject] = i
			out = append(out, Resource{URI: st.Subject})
		}
		out[i].Properties = append(out[i].Properties, PropertyValue{Predicate: st.Predicate, Object: st.Object})
	}
	return out
}

// Flatten reduces bindings to plain variable/value maps, dropping type
// information.
func Flatten(bindings []driver.Binding) []map[string]string {
	out := make([]map[string]string, 0, len(bindings))
	for _, b := range bindings {
		row := make(map[string]string, len(b))
		for name, v := range b {
			row[name] = v.Value
		}
		out = append(out, row)
	}
	return out
}

// Records converts bindings to typed rdf.Term maps.
func Records(bindings []driver.Binding) ([]map[string]rdf.Term, error) {
	out := make([]map[string]rdf.Term, 0, len(bindings))
	for i, b := range bindings {
		row := make(map[string]rdf.Term, len(b))
		for name, v := range b {
			t, err := v.Term()
			if err != nil {
				return nil, fmt.Errorf("binding %d, ?%s: %w", i, name, err)
			}
			row[name] = t
		}
		out = append(out, row)
	}
	return out, nil
}

// TermFromValue converts a result value back into a query term, so values
// read from the store can be written again unchanged. Blank nodes have no
// stable identity across requests and are rejected.
func TermFromValue(v driver.Value) (ast.Term, error) {
	switch {
	case v.IsIRI():
		if err := ast.ValidateIRI(v.Value); err != nil {
			return nil, err
		}
		return ast.I(v.Value), nil
	case v.IsLiteral():
		if v.Lang != "" {
			return ast.Literal{Lexical: v.Value, Lang: v.Lang}, nil
		}
		return ast.Literal{Lexical: v.Value, Datatype: v.Datatype}, nil
	case v.IsBlank():
		return nil, fmt.Errorf("blank node _:%s cannot be written back", v.Value)
	default:
		return nil, fmt.Errorf("unknown value type %q", v.Type)
	}
}

func toProperties(values []PropertyValue) []rdfmap.Property {
	props := make([]rdfmap.Property, 0, len(values))
	for _, pv := range values {
		props = append(props, rdfmap.Property{
			Predicate: pv.Predicate,
			Value:     pv.Object.Value,
			IsIRI:     pv.Object.IsIRI(),
			Datatype:  pv.Object.Datatype,
		})
	}
	return props
}
