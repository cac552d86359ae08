package rdfmap

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
	"go.uber.org/zap"
)

// TypeDeriver is implemented by entities that assert extra classes computed
// from their own values, such as a low-footprint marker.
type TypeDeriver interface {
	DerivedTypes() []string
}

// Validator is implemented by entities that check their own values before
// they are serialized.
type Validator interface {
	Validate() error
}

// CompanionBuilder is implemented by entities that spawn other entities when
// serialized. Companions is called after the entity's identity is assigned and
// before its properties are read, so it may set reference fields to the
// companions' URIs.
type CompanionBuilder interface {
	Companions(f *Factory) ([]Entity, error)
}

// Triples renders e, and any companion entities, as ground triples:
// one rdf:type per class from most specific to root, then derived types, the
// identifier, and each present property in declaration order.
func (f *Factory) Triples(e Entity) ([]ast.TriplePattern, error) {
	return f.triples(e, 0)
}

const maxCompanionDepth = 4

func (f *Factory) triples(e Entity, depth int) ([]ast.TriplePattern, error) {
	if depth > maxCompanionDepth {
		return nil, fmt.Errorf("companion depth exceeded maximum of %d", maxCompanionDepth)
	}
	info, err := ClassOf(e)
	if err != nil {
		return nil, err
	}
	if v, ok := e.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", info.Name, err)
		}
	}
	if err := f.Assign(e); err != nil {
		return nil, err
	}

	var companions []Entity
	if cb, ok := e.(CompanionBuilder); ok {
		companions, err = cb.Companions(f)
		if err != nil {
			return nil, fmt.Errorf("%s companions: %w", info.Name, err)
		}
	}

	subject := ast.I(e.GetURI())
	types := info.Types()
	if td, ok := e.(TypeDeriver); ok {
		types = append(types, td.DerivedTypes()...)
	}

	var out []ast.TriplePattern
	seen := make(map[string]bool, len(types))
	for _, name := range types {
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := ast.ValidateLocalName(name); err != nil {
			return nil, fmt.Errorf("%s: %w", info.Name, err)
		}
		out = append(out, ast.IsA(subject, ast.I(f.ClassIRI(name))))
	}
	out = append(out, ast.Triple(subject, ast.I(f.PropertyIRI(IDProperty)), ast.Integer(e.GetID())))

	v := reflect.ValueOf(e).Elem()
	for _, fi := range info.Fields {
		objects, err := f.objects(info, fi, v.FieldByIndex(fi.Index))
		if err != nil {
			return nil, &TagError{TypeName: info.Name, Field: fi.FieldName, Cause: err}
		}
		predicate := ast.I(f.PropertyIRI(fi.Tag.Name))
		for _, o := range objects {
			out = append(out, ast.Triple(subject, predicate, o))
		}
	}

	for _, c := range companions {
		ct, err := f.triples(c, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, ct...)
	}
	return out, nil
}

// ToSparqlInsert renders the triple block of e, one statement per line,
// suitable for the body of INSERT DATA.
func (f *Factory) ToSparqlInsert(e Entity) (string, error) {
	triples, err := f.Triples(e)
	if err != nil {
		return "", err
	}
	c := ast.Compiler{}
	return c.CompileTriples(triples)
}

func (f *Factory) objects(info *ClassInfo, fi FieldInfo, field reflect.Value) ([]ast.Term, error) {
	var values []reflect.Value
	switch {
	case fi.IsPointer:
		if field.IsNil() {
			return nil, nil
		}
		values = []reflect.Value{field.Elem()}
	case fi.IsSlice:
		for i := 0; i < field.Len(); i++ {
			values = append(values, field.Index(i))
		}
	default:
		values = []reflect.Value{field}
	}

	terms := make([]ast.Term, 0, len(values))
	for _, v := range values {
		if fi.IsRef() {
			ref := v.String()
			if ref == "" {
				continue
			}
			if err := ast.ValidateIRI(ref); err != nil {
				f.logger.Debug("skipping invalid reference",
					zap.String("class", info.Name),
					zap.String("property", fi.Tag.Name),
					zap.String("value", ref),
					zap.Error(err))
				continue
			}
			terms = append(terms, ast.I(ref))
			continue
		}

		lit, present, err := literalFor(fi, v)
		if err != nil {
			return nil, err
		}
		if present {
			terms = append(terms, lit)
		}
	}
	return terms, nil
}

// literalFor converts a scalar field value to a typed literal. Empty strings
// and zero times held by value are treated as absent.
func literalFor(fi FieldInfo, v reflect.Value) (ast.Literal, bool, error) {
	switch fi.Datatype {
	case ast.XSDString:
		s := v.String()
		if s == "" && !fi.IsPointer {
			return ast.Literal{}, false, nil
		}
		return ast.TypedString(s), true, nil

	case ast.XSDBoolean:
		return ast.Boolean(v.Bool()), true, nil

	case ast.XSDInteger:
		switch v.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return ast.Literal{Lexical: fmt.Sprintf("%d", v.Uint()), Datatype: ast.XSDInteger}, true, nil
		default:
			return ast.Integer(v.Int()), true, nil
		}

	case ast.XSDDecimal:
		x := v.Float()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ast.Literal{}, false, fmt.Errorf("%v is not a valid xsd:decimal", x)
		}
		return ast.Decimal(x), true, nil

	case ast.XSDDate, ast.XSDDateTime:
		t := v.Interface().(time.Time)
		if t.IsZero() && !fi.IsPointer {
			return ast.Literal{}, false, nil
		}
		if fi.Datatype == ast.XSDDateTime {
			return ast.DateTime(t), true, nil
		}
		return ast.Date(t), true, nil

	default:
		return ast.Literal{}, false, fmt.Errorf("unsupported datatype %s", fi.Datatype)
	}
}
