package triplestore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/rdfmap"
)

// Filter restricts the subjects matched by a query. Filters added to one
// query are combined with logical AND.
type Filter interface {
	// Patterns renders the WHERE patterns constraining subject.
	Patterns(subject ast.Var, scope *Scope) ([]ast.Pattern, error)
}

// Scope resolves property names and hands out fresh variables while filters
// render.
type Scope struct {
	factory *rdfmap.Factory
	n       int
}

func newScope(f *rdfmap.Factory) *Scope {
	return &Scope{factory: f}
}

// Property resolves a property given as a local name or an absolute IRI.
func (s *Scope) Property(name string) (ast.IRI, error) {
	return resolveIRI(s.factory.PropertyIRI, name)
}

// Var returns a variable not used by any other pattern of the query.
func (s *Scope) Var() ast.Var {
	s.n++
	return ast.V("v" + strconv.Itoa(s.n))
}

func resolveIRI(build func(string) string, name string) (ast.IRI, error) {
	if strings.Contains(name, ":") {
		if err := ast.ValidateIRI(name); err != nil {
			return ast.IRI{}, err
		}
		return ast.I(name), nil
	}
	if err := ast.ValidateLocalName(name); err != nil {
		return ast.IRI{}, err
	}
	return ast.I(build(name)), nil
}

// valueTerm converts a Go value into a term usable both in a triple pattern
// and inside a FILTER expression.
func valueTerm(value any) (ast.Term, ast.Expr, error) {
	t, err := ast.TermFromGo(value)
	if err != nil {
		return nil, nil, err
	}
	e, ok := t.(ast.Expr)
	if !ok {
		return nil, nil, fmt.Errorf("%T cannot be used as a filter value", value)
	}
	return t, e, nil
}

// --- Comparison filters ---

// ComparisonFilter compares a property value with a Go value. Values are
// typed as by ast.TermFromGo.
type ComparisonFilter struct {
	Property string
	// Op is one of =, !=, <, <=, >, >=.
	Op    string
	Value any
}

// Patterns implements Filter. Equality is an exact triple match; the other
// operators bind the value and compare it in a FILTER.
func (f *ComparisonFilter) Patterns(subject ast.Var, scope *Scope) ([]ast.Pattern, error) {
	pred, err := scope.Property(f.Property)
	if err != nil {
		return nil, err
	}
	term, expr, err := valueTerm(f.Value)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.Property, err)
	}
	if f.Op == "=" {
		return []ast.Pattern{ast.Triple(subject, pred, term)}, nil
	}
	v := scope.Var()
	return []ast.Pattern{
		ast.Triple(subject, pred, v),
		ast.Filter(ast.Cmp(v, f.Op, expr)),
	}, nil
}

// Eq matches subjects having property equal to value.
func Eq(property string, value any) Filter {
	return &ComparisonFilter{Property: property, Op: "=", Value: value}
}

// Neq matches subjects having a property value different from value.
func Neq(property string, value any) Filter {
	return &ComparisonFilter{Property: property, Op: "!=", Value: value}
}

// Gt matches subjects having a property value greater than value.
func Gt(property string, value any) Filter {
	return &ComparisonFilter{Property: property, Op: ">", Value: value}
}

// Gte matches subjects having a property value greater than or equal to value.
func Gte(property string, value any) Filter {
	return &ComparisonFilter{Property: property, Op: ">=", Value: value}
}

// Lt matches subjects having a property value less than value.
func Lt(property string, value any) Filter {
	return &ComparisonFilter{Property: property, Op: "<", Value: value}
}

// Lte matches subjects having a property value less than or equal to value.
func Lte(property string, value any) Filter {
	return &ComparisonFilter{Property: property, Op: "<=", Value: value}
}

// RangeFilter matches property values within [Min, Max], bounds included.
type RangeFilter struct {
	Property string
	Min      any
	Max      any
}

// Patterns implements Filter.
func (f *RangeFilter) Patterns(subject ast.Var, scope *Scope) ([]ast.Pattern, error) {
	pred, err := scope.Property(f.Property)
	if err != nil {
		return nil, err
	}
	_, lo, err := valueTerm(f.Min)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.Property, err)
	}
	_, hi, err := valueTerm(f.Max)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.Property, err)
	}
	v := scope.Var()
	return []ast.Pattern{
		ast.Triple(subject, pred, v),
		ast.Filter(ast.And(ast.Cmp(v, ">=", lo), ast.Cmp(v, "<=", hi))),
	}, nil
}

// Range matches property values between min and max inclusive.
func Range(property string, min, max any) Filter {
	return &RangeFilter{Property: property, Min: min, Max: max}
}

// --- String filters ---

// ContainsFilter matches property values containing a substring, ignoring
// case.
type ContainsFilter struct {
	Property  string
	Substring string
}

// Patterns implements Filter.
func (f *ContainsFilter) Patterns(subject ast.Var, scope *Scope) ([]ast.Pattern, error) {
	pred, err := scope.Property(f.Property)
	if err != nil {
		return nil, err
	}
	v := scope.Var()
	return []ast.Pattern{
		ast.Triple(subject, pred, v),
		ast.Filter(ast.Contains(v, ast.String(f.Substring))),
	}, nil
}

// Contains creates a case-insensitive substring filter.
func Contains(property, substring string) Filter {
	return &ContainsFilter{Property: property, Substring: substring}
}

// --- Set membership ---

// InFilter matches property values equal to one of Values.
type InFilter struct {
	Property string
	Values   []any
}

// Patterns implements Filter. An empty set matches nothing.
func (f *InFilter) Patterns(subject ast.Var, scope *Scope) ([]ast.Pattern, error) {
	pred, err := scope.Property(f.Property)
	if err != nil {
		return nil, err
	}
	v := scope.Var()
	if len(f.Values) == 0 {
		return []ast.Pattern{ast.Triple(subject, pred, v), ast.Filter(ast.Boolean(false))}, nil
	}
	values := make([]ast.Expr, 0, len(f.Values))
	for _, val := range f.Values {
		_, e, err := valueTerm(val)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Property, err)
		}
		values = append(values, e)
	}
	return []ast.Pattern{
		ast.Triple(subject, pred, v),
		ast.Filter(ast.In(v, values...)),
	}, nil
}

// In matches subjects whose property equals any of values.
func In(property string, values ...any) Filter {
	return &InFilter{Property: property, Values: values}
}

// --- Presence and references ---

// HasFilter matches subjects carrying at least one value of Property.
type HasFilter struct {
	Property string
}

// Patterns implements Filter.
func (f *HasFilter) Patterns(subject ast.Var, scope *Scope) ([]ast.Pattern, error) {
	pred, err := scope.Property(f.Property)
	if err != nil {
		return nil, err
	}
	return []ast.Pattern{ast.Triple(subject, pred, scope.Var())}, nil
}

// Has matches subjects with any value for property.
func Has(property string) Filter {
	return &HasFilter{Property: property}
}

// RefersToFilter matches subjects whose relationship Property points at URI.
type RefersToFilter struct {
	Property string
	URI      string
}

// Patterns implements Filter.
func (f *RefersToFilter) Patterns(subject ast.Var, scope *Scope) ([]ast.Pattern, error) {
	pred, err := scope.Property(f.Property)
	if err != nil {
		return nil, err
	}
	if err := ast.ValidateIRI(f.URI); err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.Property, err)
	}
	return []ast.Pattern{ast.Triple(subject, pred, ast.I(f.URI))}, nil
}

// RefersTo matches subjects linked to uri through property.
func RefersTo(property, uri string) Filter {
	return &RefersToFilter{Property: property, URI: uri}
}
