package triplestore

import (
	"context"
	"fmt"

	"github.com/ecotourisme/go-ecosparql/ast"
)

// Query is a chainable query over the instances of one class.
type Query struct {
	m       *Manager
	class   string
	filters []Filter
	orderBy []OrderClause
	limit   int
	offset  int
}

// OrderClause sorts subjects by the value of a property.
type OrderClause struct {
	Property string
	Desc     bool
}

// Query starts a query over class and its subclasses. An empty class
// matches any typed subject.
func (m *Manager) Query(class string) *Query {
	return &Query{m: m, class: class}
}

// Filter adds conditions. Multiple calls are combined with logical AND.
func (q *Query) Filter(filters ...Filter) *Query {
	q.filters = append(q.filters, filters...)
	return q
}

// OrderAsc sorts ascending on property. Subjects without the property are
// excluded.
func (q *Query) OrderAsc(property string) *Query {
	q.orderBy = append(q.orderBy, OrderClause{Property: property})
	return q
}

// OrderDesc sorts descending on property. Subjects without the property are
// excluded.
func (q *Query) OrderDesc(property string) *Query {
	q.orderBy = append(q.orderBy, OrderClause{Property: property, Desc: true})
	return q
}

// Limit caps the number of subjects returned.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n subjects.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

func (q *Query) buildSubjects() (ast.SelectQuery, error) {
	scope := newScope(q.m.factory)
	where, err := q.m.subjectPatterns(q.class, q.filters, scope)
	if err != nil {
		return ast.SelectQuery{}, err
	}
	sel := ast.SelectDistinct(varS).WithWhere(where...)
	for _, o := range q.orderBy {
		pred, err := scope.Property(o.Property)
		if err != nil {
			return ast.SelectQuery{}, err
		}
		v := scope.Var()
		sel = sel.WithWhere(ast.Triple(varS, pred, v))
		if o.Desc {
			sel.OrderBy = append(sel.OrderBy, ast.Desc(v))
		} else {
			sel.OrderBy = append(sel.OrderBy, ast.Asc(v))
		}
	}
	sel.Limit = q.limit
	sel.Offset = q.offset
	return sel, nil
}

// Subjects returns the URIs of matching subjects in query order.
func (q *Query) Subjects(ctx context.Context) ([]string, error) {
	sel, err := q.buildSubjects()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.label(), err)
	}
	bindings, err := q.m.query(ctx, "query "+q.label(), sel)
	if err != nil {
		return nil, err
	}
	uris := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if v, ok := b["s"]; ok && v.IsIRI() {
			uris = append(uris, v.Value)
		}
	}
	return uris, nil
}

// Execute returns the matching subjects with all their triples, one
// Resource per subject in query order.
func (q *Query) Execute(ctx context.Context) ([]Resource, error) {
	uris, err := q.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	if len(uris) == 0 {
		return []Resource{}, nil
	}

	members := make([]ast.Expr, 0, len(uris))
	for _, u := range uris {
		members = append(members, ast.I(u))
	}
	sel := ast.Select(varS, varP, varO).WithWhere(
		ast.Triple(varS, varP, varO),
		ast.Filter(ast.In(varS, members...)),
	)
	bindings, err := q.m.query(ctx, "query "+q.label(), sel)
	if err != nil {
		return nil, err
	}

	grouped := GroupBySubject(statements(bindings))
	byURI := make(map[string]Resource, len(grouped))
	for _, r := range grouped {
		byURI[r.URI] = r
	}
	out := make([]Resource, 0, len(uris))
	for _, u := range uris {
		if r, ok := byURI[u]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// First returns the first matching subject, or nil if none matched.
func (q *Query) First(ctx context.Context) (*Resource, error) {
	one := *q
	one.limit = 1
	res, err := one.Execute(ctx)
	if err != nil || len(res) == 0 {
		return nil, err
	}
	return &res[0], nil
}

// Count returns the number of distinct matching subjects. Order, limit and
// offset are ignored.
func (q *Query) Count(ctx context.Context) (int, error) {
	where, err := q.m.subjectPatterns(q.class, q.filters, newScope(q.m.factory))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.label(), err)
	}
	s := varS
	return q.m.count(ctx, "count "+q.label(), ast.SelectCount(&s, ast.V("n")).WithWhere(where...))
}

// Exists reports whether at least one subject matches.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	n, err := q.Count(ctx)
	return n > 0, err
}

func (q *Query) label() string {
	if q.class == "" {
		return "*"
	}
	return q.class
}
