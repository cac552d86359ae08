package driver

import (
	"bytes"
	"encoding/json"

	"github.com/knakk/rdf"
	"github.com/knakk/sparql"
)

// Value is one bound RDF term as it appears in a SPARQL JSON result set.
type Value struct {
	// Type is "uri", "literal", "typed-literal" or "bnode".
	Type string `json:"type"`
	// Value is the IRI, the literal lexical form or the blank node label.
	Value string `json:"value"`
	// Lang is the language tag of a literal.
	Lang string `json:"xml:lang,omitempty"`
	// Datatype is the datatype IRI of a typed literal.
	Datatype string `json:"datatype,omitempty"`
}

// IsIRI reports whether v is a resource.
func (v Value) IsIRI() bool { return v.Type == "uri" }

// IsBlank reports whether v is a blank node.
func (v Value) IsBlank() bool { return v.Type == "bnode" }

// IsLiteral reports whether v is a literal, typed or not.
func (v Value) IsLiteral() bool { return v.Type == "literal" || v.Type == "typed-literal" }

// Term converts v into an rdf.Term.
func (v Value) Term() (rdf.Term, error) {
	switch {
	case v.IsIRI():
		return rdf.NewIRI(v.Value)
	case v.IsBlank():
		return rdf.NewBlank(v.Value)
	case v.Lang != "":
		return rdf.NewLangLiteral(v.Value, v.Lang)
	case v.Datatype != "":
		dt, err := rdf.NewIRI(v.Datatype)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(v.Value, dt), nil
	default:
		return rdf.NewLiteral(v.Value)
	}
}

// Binding is one solution: variable name to bound value. Unbound variables
// are absent.
type Binding map[string]Value

// Results is a decoded SPARQL query response.
type Results struct {
	// Vars lists the projected variables in order.
	Vars []string
	// Bindings holds one entry per solution, never nil.
	Bindings []Binding
	// Boolean is set for ASK queries.
	Boolean *bool

	raw *sparql.Results
}

// Len returns the number of solutions.
func (r *Results) Len() int {
	return len(r.Bindings)
}

// Solutions returns the solutions as rdf.Term maps.
func (r *Results) Solutions() []map[string]rdf.Term {
	if r.raw == nil {
		return nil
	}
	return r.raw.Solutions()
}

func decodeResults(data []byte) (*Results, error) {
	raw, err := sparql.ParseJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	res := &Results{
		Vars:     raw.Head.Vars,
		Bindings: make([]Binding, 0, len(raw.Results.Bindings)),
		raw:      raw,
	}
	for _, sol := range raw.Results.Bindings {
		b := make(Binding, len(sol))
		for name, v := range sol {
			b[name] = Value{Type: v.Type, Value: v.Value, Lang: v.Lang, Datatype: v.DataType}
		}
		res.Bindings = append(res.Bindings, b)
	}

	var ask struct {
		Boolean *bool `json:"boolean"`
	}
	if err := json.Unmarshal(data, &ask); err == nil {
		res.Boolean = ask.Boolean
	}
	return res, nil
}
