package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/rdfmap"
	"github.com/ecotourisme/go-ecosparql/triplestore"
)

// valueTyper converts the text given for a property into the value it is
// stored as.
type valueTyper func(property, raw string) (any, error)

// classTyper types values by the properties of class and its registered
// subclasses. An empty class considers every registered class.
func classTyper(class string) valueTyper {
	var infos []*rdfmap.ClassInfo
	for _, info := range rdfmap.RegisteredClasses() {
		if class == "" || info.IsA(class) {
			infos = append(infos, info)
		}
	}
	return typerOf(infos)
}

// subjectTyper types values by the registered classes of the resource at uri.
func subjectTyper(ctx context.Context, m *triplestore.Manager, uri string) (valueTyper, error) {
	values, err := m.GetByURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	var infos []*rdfmap.ClassInfo
	for _, pv := range values {
		if pv.Predicate != ast.RDFType || !pv.Object.IsIRI() {
			continue
		}
		name, ok := m.Factory().LocalName(pv.Object.Value)
		if !ok {
			continue
		}
		if info, ok := rdfmap.Lookup(name); ok {
			infos = append(infos, info)
		}
	}
	return typerOf(infos), nil
}

// typerOf types mapped properties by their datatype. Unmapped properties,
// and properties the classes map to different datatypes, fall back to
// parseValue.
func typerOf(infos []*rdfmap.ClassInfo) valueTyper {
	return func(property, raw string) (any, error) {
		fi, ok := mappedField(infos, property)
		if !ok {
			return parseValue(raw), nil
		}
		return typedValue(fi, raw)
	}
}

func mappedField(infos []*rdfmap.ClassInfo, property string) (rdfmap.FieldInfo, bool) {
	var found rdfmap.FieldInfo
	ok := false
	for _, info := range infos {
		fi, has := info.FieldByProperty(property)
		if !has {
			continue
		}
		if ok && (fi.IsRef() != found.IsRef() || fi.Datatype != found.Datatype) {
			return rdfmap.FieldInfo{}, false
		}
		found, ok = fi, true
	}
	return found, ok
}

// typedValue parses raw as the literal type of fi. Whole numbers given for
// a decimal property become xsd:decimal so they match stored values.
func typedValue(fi rdfmap.FieldInfo, raw string) (any, error) {
	if fi.IsRef() {
		if err := ast.ValidateIRI(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", fi.Property(), err)
		}
		return ast.I(raw), nil
	}
	invalid := func(err error) error {
		dt := strings.TrimPrefix(fi.Datatype, ast.XSDNamespace)
		return fmt.Errorf("%s: %q is not a valid xsd:%s: %w", fi.Property(), raw, dt, err)
	}
	switch fi.Datatype {
	case ast.XSDString:
		return raw, nil
	case ast.XSDBoolean:
		switch raw {
		case "true":
			return ast.Boolean(true), nil
		case "false":
			return ast.Boolean(false), nil
		}
		return nil, invalid(errors.New("want true or false"))
	case ast.XSDInteger:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, invalid(err)
		}
		return ast.Integer(i), nil
	case ast.XSDDecimal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalid(err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, invalid(errors.New("not a finite number"))
		}
		return ast.Decimal(f), nil
	case ast.XSDDate:
		t, err := time.Parse(ast.DateLayout, raw)
		if err != nil {
			return nil, invalid(err)
		}
		return ast.Date(t), nil
	case ast.XSDDateTime:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, invalid(err)
		}
		return ast.DateTime(t), nil
	default:
		return parseValue(raw), nil
	}
}
